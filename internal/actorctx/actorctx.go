// Package actorctx carries who is acting, and under which request, on a
// context.Context so code below the HTTP layer can log it without importing gin.
package actorctx

import (
	"context"

	"github.com/geocoder89/projectpulse/internal/domain/user"
)

type (
	userKey      struct{}
	requestIDKey struct{}
)

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom reports false for a missing or zero user.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey{}).(user.User)

	return u, ok && u.ID != 0
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
