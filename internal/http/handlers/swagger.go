package handlers

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPISpec []byte

var openAPIETag = func() string {
	sum := sha256.Sum256(openAPISpec)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

// swagger-ui-dist is pinned; persistAuthorization keeps a pasted bearer token
// across reloads so the protected routes stay usable from the page.
const docsPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Project Pulse API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.17.14/swagger-ui.css">
</head>
<body>
<div id="docs"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.17.14/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({
  url: "/docs/openapi.yaml",
  dom_id: "#docs",
  persistAuthorization: true,
  tryItOutEnabled: true,
  displayRequestDuration: true
});
</script>
</body>
</html>`

func SwaggerUI(ctx *gin.Context) {
	ctx.Header("Cache-Control", "no-cache")
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}

// OpenAPISpec serves the embedded document. It only changes with a new build,
// so clients may revalidate with If-None-Match.
func OpenAPISpec(ctx *gin.Context) {
	ctx.Header("ETag", openAPIETag)
	ctx.Header("Cache-Control", "public, max-age=300")

	if etagMatches(ctx.GetHeader("If-None-Match"), openAPIETag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", openAPISpec)
}
