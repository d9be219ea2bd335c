package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes a 200 body tagged with a content hash, or 304 when the
// client already holds it. Project bodies depend on who is asking, so caches must
// key on the token and revalidate every time.
func RespondJSONWithETag(ctx *gin.Context, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(http.StatusOK, payload)
		return
	}

	sum := sha256.Sum256(body)
	tag := `"` + hex.EncodeToString(sum[:16]) + `"`

	ctx.Header("ETag", tag)
	ctx.Header("Cache-Control", "private, no-cache")
	ctx.Writer.Header().Add("Vary", "Authorization")

	if etagMatches(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func etagMatches(header, tag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		// weak comparison: W/"x" matches "x"
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == tag {
			return true
		}
	}

	return false
}
