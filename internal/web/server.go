package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/kiosk"
	"github.com/kozaktomas/face-kiosk/internal/ui"
	"github.com/kozaktomas/face-kiosk/internal/web/middleware"
)

// Server represents the kiosk web server
type Server struct {
	config     *config.Config
	app        *kiosk.App
	board      *ui.Board
	router     *chi.Mux
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new web server for app. board must be the renderer app reports through.
func NewServer(cfg *config.Config, app *kiosk.App, board *ui.Board, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	s := &Server{
		config: cfg,
		app:    app,
		board:  board,
		router: r,
		logger: logger,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	// Set up routes
	s.setupRoutes()

	// Create HTTP server. No write timeout: the event stream stays open and
	// backend calls are not bounded unless BACKEND_TIMEOUT is set.
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start starts the HTTP server, over TLS when a certificate is configured.
func (s *Server) Start() error {
	var err error
	if s.config.Web.TLSEnabled() {
		s.logger.Info("starting web server", "addr", s.httpServer.Addr, "tls", true)
		err = s.httpServer.ListenAndServeTLS(s.config.Web.TLSCert, s.config.Web.TLSKey)
	} else {
		s.logger.Info("starting web server", "addr", s.httpServer.Addr, "tls", false)
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
