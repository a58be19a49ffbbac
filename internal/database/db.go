// Package database wraps *sql.DB connection-pool setup and the
// schema-scoped connection helper the fan-out writer borrows a
// short-lived connection from for one subscriber's write sequence
// (spec.md §5 "Per-tenant schema isolation").
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/zhivkoto/uho-indexer/internal/config"
	"github.com/zhivkoto/uho-indexer/internal/tables"
)

// DB wraps a connection pool shared across all subscriber schemas.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// NewDB opens the pool and verifies connectivity before returning.
func NewDB(cfg *config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime != "" {
		if lifetime, err := time.ParseDuration(cfg.MaxLifetime); err == nil {
			db.SetConnMaxLifetime(lifetime)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("database connection established")

	return &DB{DB: db, logger: logger.With().Str("component", "database").Logger()}, nil
}

func (db *DB) Close() error {
	db.logger.Info().Msg("closing database connection")
	return db.DB.Close()
}

// HealthCheck pings the pool with a bounded timeout.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// SchemaConn is a connection borrowed from the pool for the duration of
// one subscriber's write sequence, with its session-local search_path
// set so unqualified table names resolve to that subscriber's schema.
// It must be released (Close) before the next subscriber's writes begin;
// cross-tenant writes never share a connection mid-transaction.
type SchemaConn struct {
	*sql.Conn
}

// WithSchema borrows a pooled connection and sets its search_path to
// schema, per spec.md §5 and §9's "per-tenant schema isolation" note.
func (db *DB) WithSchema(ctx context.Context, schema string) (*SchemaConn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("database: acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", tables.Quote(schema))); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database: set search_path to %s: %w", schema, err)
	}
	return &SchemaConn{Conn: conn}, nil
}
