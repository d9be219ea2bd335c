package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/projectpulse/internal/auth"
	"github.com/geocoder89/projectpulse/internal/config"
	"github.com/geocoder89/projectpulse/internal/http/handlers"
	"github.com/geocoder89/projectpulse/internal/http/middlewares"
	"github.com/geocoder89/projectpulse/internal/observability"
	"github.com/geocoder89/projectpulse/internal/repo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type TokenService interface {
	auth.TokenVerifier
	handlers.TokenIssuer
}

// Deps are the collaborators the router wires into handlers. Prom, Gatherer and
// RateCounter are optional.
type Deps struct {
	Store       repo.Store
	Tokens      TokenService
	Hasher      handlers.PasswordHasher
	Prom        *observability.Prom
	Gatherer    prometheus.Gatherer
	RateCounter middlewares.WindowCounter
	// Ready lists extra readiness checks next to the store.
	Ready map[string]handlers.Pinger
	// ShuttingDown flips /readyz to 503 while the server drains.
	ShuttingDown func() bool
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if deps.Prom == nil {
		reg := prometheus.NewRegistry()
		deps.Prom = observability.NewProm(reg)
		deps.Gatherer = reg
	}

	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	if deps.RateCounter == nil {
		deps.RateCounter = middlewares.NewMemoryCounter()
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(deps.Prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// body routes only; on authenticated groups it runs after RequireAuth so an
	// anonymous caller gets 401 before any 415
	requireJSON := middlewares.RequireJSON()

	// health + ops
	checks := map[string]handlers.Pinger{"store": deps.Store}
	for name, p := range deps.Ready {
		checks[name] = p
	}

	health := handlers.NewHealthHandler(checks, deps.ShuttingDown)
	r.GET("/health", health.Healthz)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// auth
	resolver := auth.NewResolver(deps.Tokens, deps.Store.Users())
	authMw := middlewares.NewAuthMiddleware(resolver)

	loginLimiter := middlewares.NewRateLimiter(deps.RateCounter, cfg.LoginRateLimit, cfg.LoginRateWindow()).
		OnLimited(deps.Prom.RecordRateLimited)

	authHandler := handlers.NewAuthHandler(deps.Store, deps.Hasher, deps.Tokens, deps.Prom)

	// keys include the route, so register and login are counted separately
	limitByIP := loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	authGroup := r.Group("/auth")
	authGroup.POST("/register", limitByIP, requireJSON, authHandler.Register)
	authGroup.POST("/login", limitByIP, requireJSON, authHandler.Login)
	authGroup.GET("/me", authMw.RequireAuth(), authHandler.Me)

	// projects, with and without the trailing slash
	projectsHandler := handlers.NewProjectsHandler(deps.Store, deps.Prom)

	projects := r.Group("/projects", authMw.RequireAuth(), requireJSON)
	for _, root := range []string{"", "/"} {
		projects.GET(root, projectsHandler.List)
		projects.POST(root, projectsHandler.Create)
	}
	projects.GET("/:id", projectsHandler.GetByID)
	projects.PATCH("/:id", projectsHandler.Update)
	projects.DELETE("/:id", projectsHandler.Delete)

	// admin
	adminHandler := handlers.NewAdminHandler(deps.Store)

	admin := r.Group("/admin", authMw.RequireAuth(), authMw.RequireAdmin())
	admin.GET("/users", adminHandler.ListUsers)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusNotFound, "not_found", "Route not found", nil)
	})

	return r
}
