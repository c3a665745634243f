package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/tonebank/internal/catalog"
	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/notemap"
)

// Catalog is the read side of the catalog used by the handlers
type Catalog interface {
	ListTones(ctx context.Context) ([]catalog.ToneSummary, error)
	ToneByRef(ctx context.Context, ref string) (*entities.Tone, error)
	ToneSamples(ctx context.Context, toneID uint) ([]*entities.Sample, error)
	NoteMap(ctx context.Context, toneID uint) (notemap.NoteMap, error)
	Lookup(ctx context.Context, toneID uint, midi int) (catalog.PlayInfo, error)
	Sample(ctx context.Context, id uint) (*entities.Sample, error)
}

// Server is the HTTP lookup server.
type Server struct {
	echo      *echo.Echo
	config    *Config
	catalog   Catalog
	metrics   http.Handler
	log       logger.Logger
	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the logger, by default the global "api" module
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsHandler exposes h at /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// New creates a server for cat. Nothing listens until Run is called.
func New(config *Config, cat Catalog, opts ...ServerOption) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		catalog:   cat,
		log:       logger.Global().Module("api"),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Logger = logger.NewEchoLoggerAdapter(s.log)

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.echo.Use(echomw.Recover())
	s.echo.Use(newRequestLogger(s.log))

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/tones", s.listTones)
	v1.GET("/tones/:tone", s.getTone)
	v1.GET("/tones/:tone/map", s.getNoteMap)
	v1.GET("/tones/:tone/notes/:midi", s.lookupNote)
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server starting", logger.String("address", s.config.Listen))
		err := s.echo.Start(s.config.Listen)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	s.log.Info("server shutdown complete")
	return nil
}

func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime":         uptime.Round(time.Second).String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}
