package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-engine/internal/api"
	"github.com/cardio-risk-engine/internal/cache"
	"github.com/cardio-risk-engine/internal/config"
	"github.com/cardio-risk-engine/internal/database"
	"github.com/cardio-risk-engine/internal/domain"
	"github.com/cardio-risk-engine/internal/history"
	"github.com/cardio-risk-engine/internal/risk"
)

const migrationsPath = "migrations"

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)

	// Engine configuration is validated fail-fast: a broken model or
	// cohort table must never begin serving.
	engine, err := risk.NewEngine(risk.DefaultModelSet(), risk.DefaultCohortTable(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize risk engine")
	}

	store, db, err := newHistoryStore(configManager, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize history store")
	}
	if store != nil {
		defer store.Close()
	}
	if db != nil {
		defer db.Close()
	}

	assessmentCache, err := cache.New(cfg.Cache, newRedisClient(cfg.Cache, logger), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize assessment cache")
	}

	var dbHealth api.HealthChecker
	if db != nil {
		dbHealth = db
	}
	server := api.NewServer(cfg, engine, store, assessmentCache, dbHealth, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting cardiovascular risk engine server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// newHistoryStore builds the configured history backend, running
// migrations first for postgres. The returned *database.DB backs the
// health endpoint and is nil for non-postgres backends.
func newHistoryStore(configManager *config.Manager, cfg *domain.Config, logger *logrus.Logger) (history.Store, *database.DB, error) {
	switch cfg.History.Backend {
	case "none":
		logger.Info("Assessment history disabled")
		return nil, nil, nil
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.History.SQLitePath, cfg.History.MaxPerUser)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("path", cfg.History.SQLitePath).Info("SQLite history store ready")
		return history.NewBreakerStore(store, logger), nil, nil
	case "postgres":
		if err := database.RunMigrations(configManager.GetDatabaseURL(), migrationsPath, logger); err != nil {
			return nil, nil, err
		}

		db, err := database.NewPool(context.Background(), cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}

		store, err := history.NewPostgresStoreFromURL(configManager.GetDatabaseURL(), cfg.History.MaxPerUser)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.WithFields(logrus.Fields{
			"host":     cfg.Database.Host,
			"database": cfg.Database.Database,
		}).Info("PostgreSQL history store ready")
		return history.NewBreakerStore(store, logger), db, nil
	default:
		// Unreachable after config validation.
		return nil, nil, nil
	}
}

// newRedisClient builds the optional shared cache tier. Returns nil when
// no Redis URL is configured; the cache degrades to single-tier.
func newRedisClient(cfg domain.CacheConfig, logger *logrus.Logger) *redis.Client {
	if !cfg.Enabled || cfg.RedisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Warn("Invalid Redis URL, running with in-process cache only")
		return nil
	}
	opts.PoolSize = cfg.PoolSize
	opts.PoolTimeout = cfg.PoolTimeout

	return redis.NewClient(opts)
}
