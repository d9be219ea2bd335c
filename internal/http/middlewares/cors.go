package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ",")
	corsHeaders = "Authorization,Content-Type,If-None-Match,X-Request-Id"
	corsExposed = "ETag,Location,Retry-After,X-Request-Id"
	corsMaxAge  = strconv.Itoa(int((10 * time.Minute).Seconds()))
)

// CORSMiddleware allows browser clients from the configured origins. Bearer tokens
// travel in a header, so credentials mode is not enabled.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		if origin == "" {
			ctx.Next()
			return
		}

		h := ctx.Writer.Header()
		h.Add("Vary", "Origin")

		ok := allowed[origin]
		if ok {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", corsExposed)
		}

		preflight := ctx.Request.Method == http.MethodOptions &&
			ctx.GetHeader("Access-Control-Request-Method") != ""
		if !preflight {
			ctx.Next()
			return
		}

		if ok {
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}
		ctx.AbortWithStatus(http.StatusNoContent)
	}
}
