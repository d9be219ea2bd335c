package redisclient_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/projectpulse/internal/redisclient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *redisclient.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	c := redisclient.New(redisclient.Config{Addr: addr})
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Ping(ctx))

	return c
}

func TestHitCountsWithinWindow(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	for want := int64(1); want <= 3; want++ {
		n, resetIn, err := c.Hit(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
		assert.True(t, resetIn > 0 && resetIn <= time.Minute, resetIn)
	}
}

func TestHitResetsAfterWindow(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	_, _, err := c.Hit(ctx, key, 100*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(250 * time.Millisecond)

	n, _, err := c.Hit(ctx, key, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
