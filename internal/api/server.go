package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/roach88/rowlock/internal/workitem"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns default configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:      "127.0.0.1:8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Routes maps each assign path to its strategy.
var Routes = map[string]workitem.Strategy{
	"/workItem/assign-pessimistic":                         workitem.Pessimistic,
	"/workItem/assign-optimistic-row-version":              workitem.RowVersion,
	"/workItem/assign-manual-optimistic-concurrency-token": workitem.ConcurrencyToken,
}

// Server is the HTTP API server.
type Server struct {
	config   *ServerConfig
	logger   *slog.Logger
	handlers *Handlers
	handler  http.Handler
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new server. A nil logger means slog.Default().
func NewServer(cfg *ServerConfig, u Updater, r Reader, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		handlers: NewHandlers(u, r),
	}
	s.handler = chain(s.routes(), RecoveryMiddleware(logger), LoggingMiddleware(logger))
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	for path, strategy := range Routes {
		mux.Handle("POST "+path, s.handlers.HandleAssign(strategy))
	}
	mux.HandleFunc("GET /workItem/{strategy}/{id}", s.handlers.HandleGetWorkItem)
	mux.HandleFunc("GET /healthz", s.handlers.HandleHealth)
	return mux
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.listener = listener

	s.logger.Info("HTTP server started", "address", listener.Addr().String())

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Address
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
