// Package api provides the HTTP server of the connector builder.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/autobridge/autobridge/internal/api/handlers"
	"github.com/autobridge/autobridge/internal/api/health"
	"github.com/autobridge/autobridge/internal/api/middleware"
	"github.com/autobridge/autobridge/internal/auth"
	"github.com/autobridge/autobridge/internal/export"
	"github.com/autobridge/autobridge/internal/store"
	"github.com/autobridge/autobridge/internal/workflow"
	"github.com/autobridge/autobridge/pkg/config"
	"github.com/autobridge/autobridge/ui"
	"github.com/autobridge/autobridge/web"
)

// Version is the current version of the server.
// This should be set at build time using ldflags.
var Version = "dev"

// Deps are the services the server routes to.
type Deps struct {
	Store   store.Store
	Manager *workflow.Manager
	Tokens  *auth.Service
	Sealer  *export.Sealer
}

// Server represents the HTTP server.
type Server struct {
	router        chi.Router
	httpServer    *http.Server
	deps          Deps
	config        *config.Config
	logger        *slog.Logger
	healthChecker *health.Checker
}

// NewServer creates a new server with the given dependencies.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		deps:   deps,
		config: cfg,
		logger: logger,
	}

	s.healthChecker = health.NewChecker(Version)
	s.healthChecker.Register("store", deps.Store, true)
	s.healthChecker.Register("workflow", health.PingerFunc(deps.Manager.Ping), false)

	s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // event streams are long-lived; handlers are bounded by the timeout middleware
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))

	timeout := chimiddleware.Timeout(s.requestTimeout())
	sessions := handlers.NewSessionHandler(s.deps.Manager, s.deps.Tokens, s.deps.Sealer, s.logger)
	sessionAuth := middleware.NewSessionAuth(s.deps.Tokens, "id", s.logger)
	eventsHandler := handlers.NewEventsHandler(s.deps.Manager, s.logger)
	catalogHandler := handlers.NewCatalogHandler(s.deps.Manager, s.logger)
	docsHandler := handlers.NewDocsHandler(s.logger)

	r.Route("/v1", func(r chi.Router) {
		r.With(timeout).Post("/sessions", sessions.Create)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(sessionAuth.RequireSession)

			// Event streams outlive the request timeout.
			r.Get("/events", eventsHandler.Stream)

			r.Group(func(r chi.Router) {
				r.Use(timeout)
				r.Get("/", sessions.Get)
				r.Put("/prompt", sessions.SetPrompt)
				r.Post("/templates/{index}", sessions.ApplyTemplate)
				r.Put("/tab", sessions.SelectTab)
				r.Post("/generate", sessions.Generate)
				r.Post("/validate", sessions.Validate)
				r.Post("/deploy", sessions.Deploy)
				r.Get("/config", sessions.DownloadConfig)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Get("/catalog/templates", catalogHandler.ListTemplates)
			r.Get("/dashboard", catalogHandler.Dashboard)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(timeout)

		r.Get("/health", s.healthChecker.Handler())

		r.Get("/api/docs", docsHandler.ServeSwaggerUI)
		r.Get("/api/docs/openapi.yaml", docsHandler.ServeOpenAPISpec)

		if ui.Available() {
			r.Handle("/static/*", http.StripPrefix("/static", ui.Handler()))
		}

		r.Mount("/", web.NewHandler(s.deps.Manager, s.deps.Tokens, s.deps.Sealer, s.logger).Routes())
	})

	s.router = r
}

func (s *Server) requestTimeout() time.Duration {
	if s.config.RequestTimeout > 0 {
		return s.config.RequestTimeout
	}
	return 60 * time.Second
}

// Start serves until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.httpServer.Addr, "version", Version)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return nil
	}
}

// HTTPServer returns the underlying server for graceful shutdown.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}
