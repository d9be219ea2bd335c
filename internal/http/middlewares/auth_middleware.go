package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/projectpulse/internal/actorctx"
	"github.com/geocoder89/projectpulse/internal/auth"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// CurrentUserResolver turns a bearer token into a user. auth.Resolver implements it.
type CurrentUserResolver interface {
	CurrentUser(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	resolver CurrentUserResolver
}

func NewAuthMiddleware(resolver CurrentUserResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

const unauthorizedMessage = "Could not validate credentials"

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		u, err := m.resolver.CurrentUser(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				unauthorized(c)
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "resolve current user", "err", err)
			abortError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}

		// Stash the resolved user for handlers and for code below the HTTP layer
		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))

		c.Next()
	}
}

// CurrentUser returns the user RequireAuth resolved for this request.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	abortError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
}
