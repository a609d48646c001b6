// Package api exposes the risk engine over HTTP: JSON assessment
// endpoints, per-user history retrieval and a websocket stream of
// completed assessments. The engine stays pure; every envelope concern
// (IDs, timestamps, persistence, caching) lives here.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-engine/internal/cache"
	"github.com/cardio-risk-engine/internal/domain"
	"github.com/cardio-risk-engine/internal/history"
	"github.com/cardio-risk-engine/internal/middleware"
	"github.com/cardio-risk-engine/internal/risk"
)

// HealthChecker reports whether a backing component is reachable.
// *database.DB satisfies it for the postgres backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	config *domain.Config
	engine *risk.Engine
	store  history.Store
	cache  *cache.AssessmentCache
	db     HealthChecker
	hub    *Hub
	log    *logrus.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance. The history store and the
// database health checker may be nil when persistence is disabled.
func NewServer(cfg *domain.Config, engine *risk.Engine, store history.Store, assessmentCache *cache.AssessmentCache, db HealthChecker, logger *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(corsMiddleware())
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		router.Use(limiter.Middleware())
	}

	server := &Server{
		config: cfg,
		engine: engine,
		store:  store,
		cache:  assessmentCache,
		db:     db,
		hub:    NewHub(logger),
		log:    logger,
		router: router,
	}

	server.setupRoutes()

	return server
}

// Router returns the underlying gin engine, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go s.hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assess", s.handleAssess)
		v1.POST("/assess/batch", s.handleAssessBatch)
		v1.GET("/model-info", s.handleModelInfo)
		v1.GET("/history/:user_id", s.handleHistory)
		v1.GET("/stream", s.handleStream)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-User-Id, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
