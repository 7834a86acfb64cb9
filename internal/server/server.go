// Package server serves playable media URLs and the downloaded story library.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/alkime/moodtales/internal/config"
	"github.com/alkime/moodtales/internal/media"
)

const shutdownTimeout = 5 * time.Second

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	router  *gin.Engine
	media   *media.Registry
	library string
}

// New creates a new Server instance. reg may be nil for a library-only
// server; library may be empty when nothing is downloaded.
func New(cfg *config.Config, reg *media.Registry, library string, logger *slog.Logger) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), securityHeaders(cfg, logger))

	server := &Server{
		config:  cfg,
		logger:  logger,
		router:  router,
		media:   reg,
		library: library,
	}

	server.setupRoutes()

	return server
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run listens on the configured port and serves until the process exits.
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	//nolint:exhaustruct // defaults for the remaining fields
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		errC <- srv.Serve(ln)
	}()

	s.logger.Info("Media server listening", "addr", ln.Addr().String())

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("media server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("media server shutdown: %w", err)
	}

	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	if s.media != nil {
		s.router.GET("/media/:token", s.handleMedia)
		s.router.HEAD("/media/:token", s.handleMedia)
	}

	// downloaded stories, read-only, no directory listings
	if s.library != "" {
		s.router.Use(static.Serve("/library", static.LocalFile(s.library, false)))
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	assets := 0
	if s.media != nil {
		assets = s.media.Len()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "moodtales",
		"assets":  assets,
	})
}

// handleMedia serves one minted asset. Released tokens are gone.
func (s *Server) handleMedia(c *gin.Context) {
	asset, ok := s.media.Lookup(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "media not found"})
		return
	}

	c.Header("Content-Type", asset.MIMEType)
	c.Header("Cache-Control", "no-store")

	// ServeContent handles range requests so players can seek
	http.ServeContent(c.Writer, c.Request, asset.Label, time.Time{}, bytes.NewReader(asset.Data))
}
