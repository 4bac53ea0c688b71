// Package httpserver exposes the alert service over HTTP using gin.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"krakenWebhook/internal/ports"
)

const (
	defaultMaxBodyBytes    = 64 << 10
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Config holds configuration for the HTTP server.
type Config struct {
	Port            int
	Token           string // bearer token; empty disables auth
	ServiceName     string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	JournalEnabled  bool
}

// Server owns the gin engine and the underlying http.Server.
type Server struct {
	cfg    Config
	engine *gin.Engine
	srv    *http.Server
	logger ports.Logger
}

// NewServer builds the router. It does not start listening.
func NewServer(cfg Config, logger ports.Logger, processor AlertProcessor) (*Server, error) {
	if logger == nil || processor == nil {
		return nil, fmt.Errorf("logger and processor are required for HTTP server")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ports.ErrConfigurationError, cfg.Port)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "kraken-webhook"
	}
	if cfg.Token == "" {
		logger.Warn(context.Background(), "WEBHOOK_TOKEN is empty, webhook and balance endpoints are unauthenticated")
	}

	endpoints := []string{"GET /", "GET /health", "POST /webhook", "GET /balance"}
	if cfg.JournalEnabled {
		endpoints = append(endpoints, "GET /journal")
	}
	h := &handlers{
		processor:    processor,
		logger:       logger,
		serviceName:  cfg.ServiceName,
		endpoints:    sortedEndpoints(endpoints),
		maxBodyBytes: cfg.MaxBodyBytes,
	}

	g := gin.New()
	g.Use(RequestID(), Recovery(logger), AccessLog(logger))
	g.NoRoute(h.notFound)

	g.GET("/", h.health)
	g.GET("/health", h.health)

	protected := g.Group("/", BearerAuth(cfg.Token, logger))
	protected.POST("/webhook", h.webhook)
	protected.GET("/balance", h.balance)
	if cfg.JournalEnabled {
		protected.GET("/journal", h.journal)
	}

	return &Server{
		cfg:    cfg,
		engine: g,
		logger: logger,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           g,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": ln.Addr().String()})
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "Shutting down HTTP server", map[string]interface{}{"timeout": s.cfg.ShutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	s.logger.Info(context.Background(), "HTTP server stopped")
	return nil
}
