package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/projectpulse/internal/auth"
	"github.com/geocoder89/projectpulse/internal/config"
	"github.com/geocoder89/projectpulse/internal/db"
	httpx "github.com/geocoder89/projectpulse/internal/http"
	"github.com/geocoder89/projectpulse/internal/http/handlers"
	"github.com/geocoder89/projectpulse/internal/observability"
	"github.com/geocoder89/projectpulse/internal/redisclient"
	"github.com/geocoder89/projectpulse/internal/repo"
	"github.com/geocoder89/projectpulse/internal/repo/memory"
	"github.com/geocoder89/projectpulse/internal/repo/postgres"
	"github.com/geocoder89/projectpulse/internal/security"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), observability.TracerConfig{
			Env:         cfg.Env,
			Endpoint:    cfg.OTLPEndpoint,
			SampleRatio: cfg.TraceSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	store, closeStore, err := openStore(cfg, prom)
	if err != nil {
		log.Error("storage init failed", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	seedCtx, cancelSeed := config.WithTimeout(context.Background(), 10*time.Second)
	err = db.EnsureAdminUser(seedCtx, store, hasher, cfg)
	cancelSeed()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	var shuttingDown atomic.Bool

	deps := httpx.Deps{
		Store:        store,
		Tokens:       tokens,
		Hasher:       hasher,
		Prom:         prom,
		Gatherer:     reg,
		ShuttingDown: shuttingDown.Load,
	}

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		deps.RateCounter = rdb
		deps.Ready = map[string]handlers.Pinger{"redis": rdb}
		log.Info("login rate limit backed by redis", "addr", cfg.RedisAddr)
	}

	router := httpx.NewRouter(log, cfg, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "memory_store", cfg.UsesMemoryStore())
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	shuttingDown.Store(true)

	if drain := cfg.ShutdownDrain(); drain > 0 {
		log.Info("draining before shutdown", "for", drain.String())
		time.Sleep(drain)
	}

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// openStore picks the in-process store for DATABASE_URL=memory, Postgres otherwise.
func openStore(cfg config.Config, prom *observability.Prom) (repo.Store, func(), error) {
	if cfg.UsesMemoryStore() {
		return memory.NewStore(), func() {}, nil
	}

	ctx, cancel := config.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DBURL,
		MaxConns: int32(cfg.DBMaxConns),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return postgres.NewStore(pool, prom), pool.Close, nil
}
