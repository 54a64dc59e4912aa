// internal/server/server.go
// Package server exposes the HTTP API: chat, text2cypher, user accounts,
// graph statistics, and health/schema introspection.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/internal/service"
)

// Server hosts the chi router on top of the application context.
type Server struct {
	app        *service.AppContext
	log        *zap.Logger
	httpServer *http.Server
}

// New builds the server and its routes.
func New(app *service.AppContext) *Server {
	s := &Server{
		app: app,
		log: app.Logger.Named("http"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	h := newHandlers(app, s.log)
	h.registerRoutes(r)

	cfg := app.Cfg.Server()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Start blocks serving HTTP until the context is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.app.Cfg.Server().ShutdownTimeout)
	defer cancel()
	s.log.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(shutdownCtx)
}
