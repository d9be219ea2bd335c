package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "projectpulse"

var (
	httpBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	dbBuckets   = []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 0.5, 1, 2}
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	AuthEvents    *prometheus.CounterVec
	RateLimited   *prometheus.CounterVec
	ProjectWrites *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: counter("", "http_requests_total",
			"HTTP requests by route template and status.", "method", "route", "status"),
		RequestsDuration: histogram("", "http_request_duration_seconds",
			"HTTP request latency.", httpBuckets, "method", "route", "status"),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "HTTP requests currently being served.",
		}, []string{"method", "route"}),

		DbQueryDuration: histogram("db", "query_duration_seconds",
			"Latency of logical repository operations.", dbBuckets, "op", "status"),
		DbErrorsTotal: counter("db", "errors_total",
			"Repository errors by operation and class.", "op", "class"),

		AuthEvents: counter("auth", "events_total",
			"Registration and login outcomes.", "action", "result"),
		RateLimited: counter("", "rate_limited_total",
			"Requests rejected by a rate limiter.", "route"),
		ProjectWrites: counter("projects", "writes_total",
			"Project create/update/delete outcomes.", "op", "result"),
	}

	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.AuthEvents, p.RateLimited, p.ProjectWrites,
	)

	return p
}

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

// The Record* helpers are safe on a nil *Prom.

func (p *Prom) RecordAuth(action, result string) {
	if p == nil {
		return
	}
	p.AuthEvents.WithLabelValues(action, result).Inc()
}

func (p *Prom) RecordRateLimited(route string) {
	if p == nil {
		return
	}
	p.RateLimited.WithLabelValues(route).Inc()
}

func (p *Prom) RecordProjectWrite(op, result string) {
	if p == nil {
		return
	}
	p.ProjectWrites.WithLabelValues(op, result).Inc()
}

// GinHandleMiddleware labels by route template so /projects/1 and /projects/2
// share a series. Unrouted requests collapse into "unmatched".
func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		method := ctx.Request.Method

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		inFlight := p.InFlight.WithLabelValues(method, route)
		inFlight.Inc()
		defer inFlight.Dec()

		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
