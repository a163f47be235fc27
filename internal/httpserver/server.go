package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

// ShutdownTimeout bounds graceful shutdown once the context is cancelled.
const ShutdownTimeout = 5 * time.Second

// SummarySource supplies the cached summary; *app.Monitor satisfies it.
type SummarySource interface {
	Latest() (blocks.SummaryReport, bool)
	LastError() error
}

// Options configures the server. Gatherer and MCP are optional; their
// routes are only mounted when set.
type Options struct {
	Source   SummarySource
	Gatherer prometheus.Gatherer
	MCP      http.Handler
	Version  string
	Logger   zerolog.Logger
}

// Server exposes the latest block summary over HTTP and WebSocket.
type Server struct {
	router  chi.Router
	source  SummarySource
	hub     *Hub
	version string
	logger  zerolog.Logger
}

// New creates a server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		source:  opts.Source,
		hub:     NewHub(opts.Logger),
		version: opts.Version,
		logger:  opts.Logger,
	}
	s.registerRoutes(opts)
	return s
}

func (s *Server) registerRoutes(opts Options) {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/profiles/{name}", s.handleProfile)
	})
	r.Get("/ws", s.handleWebSocket)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub that receives summary pushes.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Publish pushes a fresh summary to every WebSocket client.
func (s *Server) Publish(summary blocks.SummaryReport) {
	s.hub.Broadcast(summaryMessage(summary))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes WebSocket clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}
