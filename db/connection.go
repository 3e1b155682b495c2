// Package db wraps the PostgreSQL connection pool and the query helpers the
// services use. Rows are scanned into structs by their `db` tags.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Config holds database configuration. URL wins over the discrete fields.
type Config struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int           // default 25
	MaxIdleConns int           // default 25
	MaxLifetime  time.Duration // default 5 minutes
	MaxIdleTime  time.Duration // default 5 minutes
}

// DSN renders the connection string handed to the pgx driver.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 25
	}
	if c.MaxLifetime == 0 {
		c.MaxLifetime = 5 * time.Minute
	}
	if c.MaxIdleTime == 0 {
		c.MaxIdleTime = 5 * time.Minute
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return c
}

// Connect opens the pool and pings the server within ctx.
func Connect(ctx context.Context, config Config) (*sql.DB, error) {
	config = config.withDefaults()
	if config.MaxIdleConns > config.MaxOpenConns {
		return nil, fmt.Errorf("MaxIdleConns (%d) cannot exceed MaxOpenConns (%d)",
			config.MaxIdleConns, config.MaxOpenConns)
	}

	db, err := sql.Open("pgx", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.MaxLifetime)
	db.SetConnMaxIdleTime(config.MaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// HealthCheck pings the database with a 5 second budget.
func HealthCheck(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}
