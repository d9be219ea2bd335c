package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MemoryDBURL selects the in-process store instead of Postgres.
const MemoryDBURL = "memory"

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	Env        string
	Port       int
	DBURL      string
	DBMaxConns int

	JWTSecret           string
	JWTAccessTTLMinutes int
	BcryptCost          int

	AllowedOrigins []string
	MaxBodyBytes   int64

	AdminEmail    string
	AdminPassword string
	AdminName     string

	OTLPEndpoint     string
	TraceSampleRatio float64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginRateLimit         int
	LoginRateWindowSeconds int

	// ShutdownDrainSeconds keeps serving after SIGTERM while /readyz reports 503.
	ShutdownDrainSeconds int
}

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

func Load() (Config, error) {
	var errs []error

	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := Config{
		Env:                    getEnv("APP_ENV", "dev"),
		Port:                   intVar("PORT", 8000),
		DBURL:                  getEnv("DATABASE_URL", ""),
		DBMaxConns:             intVar("DB_MAX_CONNS", 10),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTAccessTTLMinutes:    intVar("JWT_ACCESS_TTL_MINUTES", 24*60),
		BcryptCost:             intVar("BCRYPT_COST", bcrypt.DefaultCost),
		AllowedOrigins:         parseOrigins(os.Getenv("ALLOW_ORIGINS")),
		MaxBodyBytes:           int64(intVar("MAX_BODY_BYTES", 1<<20)),
		AdminEmail:             os.Getenv("ADMIN_EMAIL"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
		AdminName:              getEnv("ADMIN_NAME", "Administrator"),
		OTLPEndpoint:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampleRatio:       1,
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                intVar("REDIS_DB", 0),
		LoginRateLimit:         intVar("LOGIN_RATE_LIMIT", 10),
		LoginRateWindowSeconds: intVar("LOGIN_RATE_WINDOW_SECONDS", 60),
		ShutdownDrainSeconds:   intVar("SHUTDOWN_DRAIN_SECONDS", 0),
	}

	if raw := os.Getenv("OTEL_TRACES_SAMPLE_RATIO"); raw != "" {
		ratio, err := strconv.ParseFloat(raw, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			errs = append(errs, fmt.Errorf("OTEL_TRACES_SAMPLE_RATIO must be a number in [0,1], got %q", raw))
		} else {
			cfg.TraceSampleRatio = ratio
		}
	}

	if cfg.DBURL == "" {
		cfg.DBURL = buildDBURL()
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) LoginRateWindow() time.Duration {
	return time.Duration(c.LoginRateWindowSeconds) * time.Second
}

func (c Config) ShutdownDrain() time.Duration {
	return time.Duration(c.ShutdownDrainSeconds) * time.Second
}

func (c Config) UsesMemoryStore() bool {
	return c.DBURL == MemoryDBURL
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "projectpulse")
	pass := getEnv("DB_PASSWORD", "projectpulse")
	name := getEnv("DB_NAME", "projectpulse")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func parseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		out := make([]string, len(defaultOrigins))
		copy(out, defaultOrigins)
		return out
	}

	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// WithTimeout bounds storage work for one request. The parent keeps trace
// context and client cancellation flowing into the store.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}

	return num, nil
}
