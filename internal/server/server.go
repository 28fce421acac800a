// Package server exposes the guide generator over HTTP. Form fields are
// posted by key and images by slot name in a multipart body; the response is
// the PDF.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskenti/topoguia"
	"github.com/taskenti/topoguia/internal/store"
)

// DefaultMaxUpload is the default limit of a request body.
const DefaultMaxUpload = 32 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithArchive stores every generated guide in a.
func WithArchive(a store.Archive) Option {
	return func(s *Server) { s.archive = a }
}

// WithMaxUpload limits the size of request bodies.
func WithMaxUpload(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

// Server serves one Generator.
type Server struct {
	gen       *topoguia.Generator
	archive   store.Archive
	logger    *log.Logger
	maxUpload int64
	router    chi.Router
}

// New creates a Server for gen.
func New(gen *topoguia.Generator, opts ...Option) *Server {
	s := &Server{
		gen:       gen,
		archive:   store.Discard{},
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
		maxUpload: DefaultMaxUpload,
	}
	for _, opt := range opts {
		opt(s)
	}
	registerMetrics()

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/templates", s.handleTemplates)
		r.Get("/fields", s.handleFields)
		r.Post("/topoguias", s.handleGenerate)
		r.Post("/topoguias/validate", s.handleValidate)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "template", s.gen.Template())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
