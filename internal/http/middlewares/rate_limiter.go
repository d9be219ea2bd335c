package middlewares

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowCounter counts hits per key in fixed windows. The in-process
// MemoryCounter and redisclient.Client both satisfy it.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

type RateLimiter struct {
	counter   WindowCounter
	window    time.Duration
	limit     int
	onLimited func(route string)
}

func NewRateLimiter(counter WindowCounter, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   limit,
		window:  window,
	}
}

// OnLimited registers a hook called for every rejected request.
func (rl *RateLimiter) OnLimited(fn func(route string)) *RateLimiter {
	rl.onLimited = fn
	return rl
}

// RateLimiterMiddleware returns a gin.HandlerFunc that enforces rate limit for a derived key.
// A failing counter lets the request through.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		key = c.FullPath() + "|" + key

		count, resetIn, err := rl.counter.Hit(c.Request.Context(), key, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		if count > int64(rl.limit) {
			retryAfter := int(math.Ceil(resetIn.Seconds()))

			if retryAfter < 1 {
				retryAfter = 1
			}

			if rl.onLimited != nil {
				rl.onLimited(c.FullPath())
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

type MemoryCounter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int64
	windowEnd time.Time
}

// sweepAt bounds how many idle buckets pile up before expired ones are dropped.
const sweepAt = 10000

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]

	if !ok || !now.Before(b.windowEnd) {
		if len(m.clients) >= sweepAt {
			m.sweep(now)
		}

		b = &clientBucket{windowEnd: now.Add(window)}
		m.clients[key] = b
	}

	b.count++
	return b.count, b.windowEnd.Sub(now), nil
}

func (m *MemoryCounter) sweep(now time.Time) {
	for k, b := range m.clients {
		if !now.Before(b.windowEnd) {
			delete(m.clients, k)
		}
	}
}

// KeyByIP keys the unauthenticated auth endpoints by client address.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
