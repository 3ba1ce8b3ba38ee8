// Package db opens and tunes the Postgres connection pool.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/slatecms/apiserver/config"
)

const (
	pingTimeout     = 5 * time.Second
	connMaxIdleTime = 2 * time.Minute
	connMaxLifetime = 30 * time.Minute
	maxIdleConns    = 5
	maxOpenConns    = 25
)

// Open connects to Postgres using the configured credentials and
// verifies the connection with a ping before returning the pool.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pool.SetConnMaxIdleTime(connMaxIdleTime)
	pool.SetConnMaxLifetime(connMaxLifetime)
	pool.SetMaxIdleConns(maxIdleConns)
	pool.SetMaxOpenConns(maxOpenConns)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// dsn renders a lib/pq keyword/value connection string. Values are
// single-quoted so passwords with spaces survive.
func dsn(cfg config.DatabaseConfig) string {
	sslmode := "disable"
	if cfg.UseSSL {
		sslmode = "require"
	}

	pairs := []string{
		pair("host", cfg.Host),
		pair("port", fmt.Sprintf("%d", cfg.Port)),
		pair("user", cfg.User),
		pair("password", cfg.Password),
		pair("dbname", cfg.DBName),
		pair("sslmode", sslmode),
	}
	return strings.Join(pairs, " ")
}

func pair(key, value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return fmt.Sprintf("%s='%s'", key, value)
}
