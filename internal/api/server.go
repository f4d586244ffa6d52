// Package api exposes the screening service over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/config"
	"github.com/mdq-screening-server/internal/middleware"
	"github.com/mdq-screening-server/internal/service"
)

// Server represents the HTTP server
type Server struct {
	config  *config.ServerConfig
	service *service.ScreeningService
	logger  *logrus.Logger
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, svc *service.ScreeningService, logger *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(corsMiddleware())

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	router.Use(limiter.Middleware())

	server := &Server{
		config:  &cfg.Server,
		service: svc,
		logger:  logger,
		router:  router,
	}

	server.setupRoutes()

	return server
}

// Router returns the underlying gin engine, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is canceled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assessments", s.handleSubmitAssessment)
		v1.GET("/assessments/:id", s.handleGetAssessment)
		v1.GET("/subjects/:subject_id/assessments", s.handleListAssessments)
		v1.GET("/subjects/:subject_id/analysis", s.handleAnalyzeSubject)
		v1.GET("/subjects/:subject_id/analyses", s.handleListAnalyses)
		v1.GET("/analyses/:id", s.handleGetAnalysis)
		v1.GET("/cache/stats", s.handleCacheStats)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
