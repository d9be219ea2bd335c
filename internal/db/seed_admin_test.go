package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/projectpulse/internal/config"
	"github.com/geocoder89/projectpulse/internal/db"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/geocoder89/projectpulse/internal/repo/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHasher struct {
	calls int
	err   error
}

func (h *fakeHasher) HashPassword(plain string) (string, error) {
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + plain, nil
}

func adminConfig() config.Config {
	return config.Config{
		AdminEmail:    "admin@example.com",
		AdminPassword: "s3cret-admin",
		AdminName:     "Root",
	}
}

func TestEnsureAdminUser_CreatesOnce(t *testing.T) {
	store := memory.NewStore()
	hasher := &fakeHasher{}
	ctx := context.Background()

	require.NoError(t, db.EnsureAdminUser(ctx, store, hasher, adminConfig()))
	require.NoError(t, db.EnsureAdminUser(ctx, store, hasher, adminConfig()))

	assert.Equal(t, 1, hasher.calls)

	u, err := store.Users().GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.Equal(t, "hashed:s3cret-admin", u.PasswordHash)
	require.NotNil(t, u.FullName)
	assert.Equal(t, "Root", *u.FullName)

	all, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEnsureAdminUser_SkipsWithoutCredentials(t *testing.T) {
	store := memory.NewStore()
	hasher := &fakeHasher{}

	cfg := adminConfig()
	cfg.AdminPassword = ""

	require.NoError(t, db.EnsureAdminUser(context.Background(), store, hasher, cfg))
	assert.Zero(t, hasher.calls)

	all, err := store.Users().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEnsureAdminUser_HashErrorLeavesNoUser(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("hash failed")

	err := db.EnsureAdminUser(context.Background(), store, &fakeHasher{err: boom}, adminConfig())
	assert.ErrorIs(t, err, boom)

	_, err = store.Users().GetByEmail(context.Background(), "admin@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}
