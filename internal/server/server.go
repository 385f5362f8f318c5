package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldstack/docextract/internal/export"
	"github.com/fieldstack/docextract/internal/metrics"
	"github.com/fieldstack/docextract/internal/pipeline"
	"github.com/fieldstack/docextract/internal/store"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	logger    *slog.Logger
	pipeline  *pipeline.Pipeline
	documents store.Store
	exporter  *export.Service
	metrics   *metrics.Metrics

	http *http.Server
}

func New(
	addr string,
	logger *slog.Logger,
	p *pipeline.Pipeline,
	documents store.Store,
	exporter *export.Service,
	m *metrics.Metrics,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:    logger,
		pipeline:  p,
		documents: documents,
		exporter:  exporter,
		metrics:   m,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealthz)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.handleProcessDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/stats", s.handleStats)
		r.Get("/export.xlsx", s.handleExport)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server.listen", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
