package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"embodi/internal/demux"
	apperrors "embodi/internal/errors"
	"embodi/pkg/registration"
)

// Service is what the HTTP layer needs from the registration workflow.
type Service interface {
	Register(ctx context.Context, req registration.Request) (registration.Response, error)
	Stream(ctx context.Context, id, key string) (<-chan demux.LogEvent, error)
	Stop(ctx context.Context, id string) error
}

// Config holds the HTTP server settings.
type Config struct {
	Addr              string
	HeartbeatInterval time.Duration
	ShutdownTimeout   time.Duration
}

// Server exposes registration, log streaming, stop and health over HTTP.
type Server struct {
	cfg        Config
	svc        Service
	errHandler *apperrors.Handler
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a server. It does not listen until Start is called.
func New(cfg Config, svc Service, logger *slog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	s := &Server{
		cfg:        cfg,
		svc:        svc,
		errHandler: apperrors.NewHandler(logger),
		logger:     logger,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /config/register", s.handleRegister)
	mux.HandleFunc("GET /config/{id}/{key}", s.handleStream)
	mux.HandleFunc("DELETE /config/{id}", s.handleStop)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully. Open SSE streams end with their request context.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("HTTP listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", listener.Addr().String())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}
