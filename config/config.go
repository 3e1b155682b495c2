// Package config loads the tourbook settings from an optional env file and
// the process environment.
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

	"github.com/platform-smith-labs/tourbook/db"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port     int
	Env      string
	LogLevel slog.Level

	Database db.Config

	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn time.Duration
	ResetTokenTTL      time.Duration
	OTPTTL             time.Duration

	FrontendURL        string
	CORSAllowedOrigins []string

	RateLimitMax    int
	RateLimitWindow time.Duration

	RedisURL        string
	EmailPubChannel string
	EmailFrom       string
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads envPath when it exists, without overriding variables already
// set in the environment, then resolves every setting. All problems are
// reported together.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup resolves the configuration from lookup, which has the
// signature of os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		Port:     r.int("PORT", 8080),
		Env:      r.string("ENV", "development"),
		LogLevel: r.level("LOG_LEVEL", slog.LevelInfo),
		Database: db.Config{
			URL:      r.string("DATABASE_URL", ""),
			Host:     r.string("DB_HOST", "localhost"),
			Port:     r.int("DB_PORT", 5432),
			User:     r.string("DB_USER", "postgres"),
			Password: r.string("DB_PASSWORD", ""),
			Database: r.string("DB_NAME", "tourbook"),
			SSLMode:  r.string("DB_SSLMODE", "disable"),
		},
		JWTSecret:          r.required("JWT_SECRET"),
		JWTExpiresIn:       r.duration("JWT_EXPIRES_IN", 90*24*time.Hour),
		JWTCookieExpiresIn: r.duration("JWT_COOKIE_EXPIRES_IN", 60*24*time.Hour),
		ResetTokenTTL:      r.duration("RESET_TOKEN_TTL", 10*time.Minute),
		OTPTTL:             r.duration("OTP_TTL", 10*time.Minute),
		FrontendURL:        strings.TrimRight(r.string("FRONTEND_URL", "http://localhost:3000"), "/"),
		CORSAllowedOrigins: r.list("CORS_ALLOWED_ORIGINS"),
		RateLimitMax:       r.int("RATE_LIMIT_MAX", 100),
		RateLimitWindow:    r.duration("RATE_LIMIT_WINDOW", time.Hour),
		RedisURL:           r.string("REDIS_URL", ""),
		EmailPubChannel:    r.string("EMAIL_PUB_CHANNEL", "emails"),
		EmailFrom:          r.string("EMAIL_FROM", "Tourbook <no-reply@tourbook.local>"),
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{cfg.FrontendURL}
	}
	if cfg.RateLimitMax <= 0 {
		r.errs = append(r.errs, fmt.Errorf("RATE_LIMIT_MAX must be positive"))
	}

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

// ParseDuration accepts Go durations ("90m", "1h30m") and whole days ("90d").
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// reader accumulates parse errors so Load can report all of them at once.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) string(key, fallback string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (r *reader) required(key string) string {
	v := r.string(key, "")
	if v == "" {
		r.errs = append(r.errs, fmt.Errorf("%s is not set", key))
	}
	return v
}

func (r *reader) int(key string, fallback int) int {
	v := r.string(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s is not a number: %q", key, v))
		return fallback
	}
	return n
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v := r.string(key, "")
	if v == "" {
		return fallback
	}
	d, err := ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (r *reader) level(key string, fallback slog.Level) slog.Level {
	v := r.string(key, "")
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return level
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.string(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
