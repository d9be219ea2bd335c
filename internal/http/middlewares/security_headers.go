package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// swagger-ui loads from unpkg and bootstraps with an inline script
	docsCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; " +
		"img-src 'self' data: https:; font-src 'self' data: https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

// SecurityHeaders sets the browser hardening headers. Responses under /auth carry
// credentials or tokens and are never cached.
func SecurityHeaders() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		h := ctx.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		path := ctx.Request.URL.Path
		switch {
		case strings.HasPrefix(path, "/docs"):
			h.Set("Content-Security-Policy", docsCSP)
		default:
			h.Set("Content-Security-Policy", apiCSP)
		}

		if strings.HasPrefix(path, "/auth/") {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}

		ctx.Next()
	}
}
