package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/projectpulse/internal/actorctx"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLoggerAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("prod", &buf)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "inside span")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "inside span", rec["msg"])
	assert.Equal(t, ServiceName, rec["service"])
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec["span_id"])
}

func TestLoggerAddsActingUser(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("prod", &buf)

	ctx := actorctx.WithRequestID(context.Background(), "req-42")
	ctx = actorctx.WithUser(ctx, user.User{ID: 7, Role: user.RoleAdmin})
	log.With("component", "test").InfoContext(ctx, "acting")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, float64(7), rec["user_id"])
	assert.Equal(t, "admin", rec["user_role"])
	assert.Equal(t, "test", rec["component"])
	assert.Equal(t, "req-42", rec["request_id"])
}

func TestLoggerLevelByEnv(t *testing.T) {
	var buf bytes.Buffer

	newLogger("prod", &buf).Debug("hidden")
	assert.Zero(t, buf.Len())

	newLogger("dev", &buf).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestObserveDB(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users_get_by_id", func() error { return pgx.ErrNoRows })
	_ = p.ObserveDB("users_create", func() error { return &pgconn.PgError{Code: "23505"} })
	err := p.ObserveDB("projects_list", func() error { return nil })

	require.NoError(t, err)
	// only the unique violation produced an error series; a missing row is not an error
	assert.Equal(t, 1, testutil.CollectAndCount(p.DbErrorsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users_create", "unique_violation")))
	assert.Equal(t, 3, testutil.CollectAndCount(p.DbQueryDuration))
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "40P01"}, "deadlock"},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23503"}), "foreign_key_violation"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{&pgconn.PgError{Code: "55P03"}, "lock_not_available"},
		{fmt.Errorf("begin: %w", context.DeadlineExceeded), "timeout"},
		{errors.New("weird"), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyDBErr(tt.err), tt.err.Error())
	}
}

func TestPromMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/projects/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/projects/1", "/projects/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/projects/:id", "204")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecordersAreNilSafe(t *testing.T) {
	var p *Prom
	assert.NotPanics(t, func() {
		p.RecordAuth("login", "ok")
		p.RecordRateLimited("/auth/login")
		p.RecordProjectWrite("update", "ok")
	})

	p = NewProm(prometheus.NewRegistry())
	p.RecordAuth("login", "invalid_credentials")
	p.RecordRateLimited("/auth/login")

	assert.Equal(t, float64(1), testutil.ToFloat64(p.AuthEvents.WithLabelValues("login", "invalid_credentials")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.RateLimited.WithLabelValues("/auth/login")))

	p.RecordProjectWrite("delete", "forbidden")
	assert.Equal(t, float64(1), testutil.ToFloat64(p.ProjectWrites.WithLabelValues("delete", "forbidden")))
}

func TestSamplerFollowsRatio(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased{0.5}")
	assert.Contains(t, newSampler(0).Description(), "ParentBased")
}
