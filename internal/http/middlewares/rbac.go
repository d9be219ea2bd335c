package middlewares

import (
	"errors"
	"net/http"

	"github.com/geocoder89/projectpulse/internal/auth"
	"github.com/gin-gonic/gin"
)

// Require runs an extra access check on the user RequireAuth resolved.
func (m *AuthMiddleware) Require(check auth.Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)

		if !ok {
			unauthorized(c)
			return
		}

		u, err := check(u)
		if err != nil {
			if errors.Is(err, auth.ErrForbidden) {
				abortError(c, http.StatusForbidden, "forbidden", "Not enough permissions")
				return
			}
			unauthorized(c)
			return
		}

		c.Set(CtxUser, u)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.Require(auth.RequireAdmin)
}
