// Package config handles application configuration and environment loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"avencia-pm/internal/db"
	"avencia-pm/internal/domain"
)

// DevJWTSecret is used when JWT_SECRET is unset outside production.
const DevJWTSecret = "dev-secret-change-in-production"

// Config holds the configuration for the API server and the CLI.
type Config struct {
	Env        string // environment: "development" (default) or "production"
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")

	// Database
	DBDriver       string        // db.DriverSQLite (default) or db.DriverPostgres
	DBPath         string        // SQLite file path
	DatabaseURL    string        // Postgres connection string
	DBReadPoolSize int           // SQLite read pool size (default 4)
	DBMaxOpenConns int           // Postgres pool size (default 20)
	DBQueryTimeout time.Duration // per-operation timeout, zero disables

	// PageSizeMax caps list page sizes. It never exceeds domain.MaxPageSize.
	PageSizeMax int

	JWTSecret string        // HS256 shared secret
	TokenTTL  time.Duration // lifetime of issued tokens (default 24h)

	// DisableRegistration turns off public self-registration.
	DisableRegistration bool

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Activity log retention. Zero keeps entries forever.
	ActivityRetention     time.Duration
	ActivityPruneSchedule string // cron spec (default "@daily")

	SeedFile string // optional YAML seed file; empty uses the embedded seed

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DBOptions returns the options for db.Open.
func (c *Config) DBOptions() db.Options {
	return db.Options{
		Driver:       c.DBDriver,
		Path:         c.DBPath,
		DSN:          c.DatabaseURL,
		ReadPoolSize: c.DBReadPoolSize,
		MaxOpenConns: c.DBMaxOpenConns,
	}
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Env:                   os.Getenv("ENV"),
		ListenAddr:            os.Getenv("LISTEN_ADDR"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		DBDriver:              strings.ToLower(os.Getenv("DB_DRIVER")),
		DBPath:                os.Getenv("DB_PATH"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		ActivityPruneSchedule: os.Getenv("ACTIVITY_PRUNE_SCHEDULE"),
		SeedFile:              os.Getenv("SEED_FILE"),
	}

	var errs []error
	intVar := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				errs = append(errs, fmt.Errorf("%s: expected a non-negative integer, got %q", key, v))
				return
			}
			*dst = n
		}
	}
	durationVar := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				errs = append(errs, fmt.Errorf("%s: expected a non-negative duration, got %q", key, v))
				return
			}
			*dst = d
		}
	}

	intVar("DB_READ_POOL_SIZE", &cfg.DBReadPoolSize)
	intVar("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	intVar("PAGE_SIZE_MAX", &cfg.PageSizeMax)
	intVar("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	durationVar("DB_QUERY_TIMEOUT", &cfg.DBQueryTimeout)
	durationVar("TOKEN_TTL", &cfg.TokenTTL)
	durationVar("ACTIVITY_RETENTION", &cfg.ActivityRetention)

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: expected a non-negative number, got %q", v))
		} else {
			cfg.RateLimitRPS = f
		}
	}

	if v := os.Getenv("DISABLE_REGISTRATION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DISABLE_REGISTRATION: expected a boolean, got %q", v))
		} else {
			cfg.DisableRegistration = b
		}
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.DBDriver {
	case "", "sqlite":
		cfg.DBDriver = db.DriverSQLite
	case "postgres", "postgresql":
		cfg.DBDriver = db.DriverPostgres
	}
	if cfg.DBDriver != db.DriverSQLite && cfg.DBDriver != db.DriverPostgres {
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverSQLite, db.DriverPostgres, cfg.DBDriver)
	}
	if cfg.DBDriver == db.DriverPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", db.DriverPostgres)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "avencia.sqlite"
	}
	if cfg.DBReadPoolSize == 0 {
		cfg.DBReadPoolSize = db.DefaultReadPoolSize
	}
	if cfg.DBMaxOpenConns == 0 {
		cfg.DBMaxOpenConns = 20
	}
	if cfg.PageSizeMax == 0 {
		cfg.PageSizeMax = domain.MaxPageSize
	}
	if cfg.PageSizeMax > domain.MaxPageSize {
		cfg.Warnings = append(cfg.Warnings,
			fmt.Sprintf("PAGE_SIZE_MAX=%d exceeds %d, clamping", cfg.PageSizeMax, domain.MaxPageSize))
		cfg.PageSizeMax = domain.MaxPageSize
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.ActivityPruneSchedule == "" {
		cfg.ActivityPruneSchedule = "@daily"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DevJWTSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure default. Set JWT_SECRET in production!")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == DevJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
