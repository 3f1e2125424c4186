// Package server exposes a pivot model over HTTP: field listing, rendering
// from a posted configuration, exports and named configuration storage.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/internal/logging"
	"github.com/spektr-org/pivot/schema"
	"github.com/spektr-org/pivot/storage"
)

// Options tunes the server. Zero values take defaults.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// EngineOptions are applied to every model the server builds.
	EngineOptions []engine.Option
}

// Server serves one data source. The source is read-only; every request
// builds its own Model, so requests never share pivot state.
type Server struct {
	src    engine.DataSource
	sch    *schema.Config
	store  storage.Store
	opts   Options
	router *chi.Mux
	http   *http.Server
}

// New wires the router. sch may be nil.
func New(src engine.DataSource, sch *schema.Config, store storage.Store, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		src:    src,
		sch:    sch,
		store:  store,
		opts:   opts,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/fields", s.handleFields)

		r.Post("/pivot", s.handlePivot)
		r.Post("/pivot/export/{format}", s.handleExport)

		r.Get("/configs", s.handleListConfigs)
		r.Get("/configs/{name}", s.handleGetConfig)
		r.Put("/configs/{name}", s.handlePutConfig)
		r.Delete("/configs/{name}", s.handleDeleteConfig)
		r.Post("/configs/{name}/pivot", s.handleConfigPivot)
	})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.FromContext(ctx).Info("server listening", "addr", s.opts.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		logging.FromContext(ctx).Info("server shutting down")
		return s.http.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one structured entry per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
