package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/projectpulse/internal/domain/user"
)

var (
	// ErrUnauthorized covers bad tokens and tokens for users that no longer exist alike.
	ErrUnauthorized = errors.New("could not validate credentials")
	ErrForbidden    = errors.New("insufficient permissions")
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (Identity, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

// Check is one step of the current-user pipeline. Returning an error stops the pipeline.
type Check func(u user.User) (user.User, error)

// Chain runs checks in order and stops at the first failure.
func Chain(checks ...Check) Check {
	return func(u user.User) (user.User, error) {
		var err error
		for _, check := range checks {
			u, err = check(u)
			if err != nil {
				return user.User{}, err
			}
		}
		return u, nil
	}
}

// RequireActiveUser lets every user through for now; deactivation plugs in here.
func RequireActiveUser(u user.User) (user.User, error) {
	return u, nil
}

func RequireAdmin(u user.User) (user.User, error) {
	if !u.IsAdmin() {
		return user.User{}, ErrForbidden
	}
	return u, nil
}

type Resolver struct {
	tokens TokenVerifier
	users  UserLoader
	check  Check
}

func NewResolver(tokens TokenVerifier, users UserLoader) *Resolver {
	return &Resolver{
		tokens: tokens,
		users:  users,
		check:  Chain(RequireActiveUser),
	}
}

// CurrentUser runs verifyToken -> loadUser -> checkActive.
// Storage failures other than a missing user are returned as-is so callers can tell them from a 401.
func (r *Resolver) CurrentUser(ctx context.Context, token string) (user.User, error) {
	identity, err := r.verifyToken(token)
	if err != nil {
		return user.User{}, err
	}

	u, err := r.loadUser(ctx, identity.UserID)
	if err != nil {
		return user.User{}, err
	}

	return r.check(u)
}

func (r *Resolver) verifyToken(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}

	identity, err := r.tokens.VerifyAccessToken(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	return identity, nil
}

func (r *Resolver) loadUser(ctx context.Context, id int64) (user.User, error) {
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnauthorized
		}
		return user.User{}, fmt.Errorf("load current user: %w", err)
	}

	return u, nil
}
