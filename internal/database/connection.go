// Package database owns the PostgreSQL pool and schema migrations for
// the assessment history backend.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-engine/internal/domain"
)

// connectTimeout bounds the startup ping so a wedged database fails
// the boot instead of hanging it.
const connectTimeout = 10 * time.Second

// DB wraps a pgx connection pool. Its Health method backs the API
// health endpoint for the postgres history backend.
type DB struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewPool connects to PostgreSQL with the configured pool limits and
// verifies reachability before returning.
func NewPool(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	logger.WithFields(logrus.Fields{
		"host":      cfg.Host,
		"database":  cfg.Database,
		"max_conns": cfg.MaxOpenConns,
	}).Info("PostgreSQL pool ready")

	return &DB{pool: pool, log: logger}, nil
}

// Health pings the pool.
func (db *DB) Health(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// Close drains the pool.
func (db *DB) Close() {
	if db.pool != nil {
		stat := db.pool.Stat()
		db.pool.Close()
		db.log.WithField("total_conns", stat.TotalConns()).Info("PostgreSQL pool closed")
	}
}
