package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/projectpulse/internal/config"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/geocoder89/projectpulse/internal/repo"
)

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
}

// EnsureAdminUser creates the configured admin account if it does not exist yet.
// Registration always produces plain users, so this is the only way an admin appears.
func EnsureAdminUser(ctx context.Context, store repo.Store, hasher PasswordHasher, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	// check if the user exists
	_, err = tx.Users().GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.HashPassword(cfg.AdminPassword)

	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	var name *string
	if cfg.AdminName != "" {
		name = &cfg.AdminName
	}

	_, err = tx.Users().Create(ctx, user.NewUser{
		Email:        cfg.AdminEmail,
		FullName:     name,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	})

	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}

	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
