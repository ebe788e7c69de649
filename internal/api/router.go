// Package api wires the HTTP surface: submission endpoints, operation
// polling, and health checks.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	apihandler "github.com/maraichr/curator/internal/api/handler"
	apimw "github.com/maraichr/curator/internal/api/middleware"
	"github.com/maraichr/curator/internal/ingestion"
	"github.com/maraichr/curator/internal/progress"
	"github.com/maraichr/curator/internal/store"
	minioclient "github.com/maraichr/curator/internal/store/minio"
)

// RouterDeps holds optional dependencies for the router.
type RouterDeps struct {
	MinIO *minioclient.Client
}

func NewRouter(logger *slog.Logger, s *store.Store, tracker *progress.Tracker, orch *ingestion.Orchestrator, deps *RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apimw.Logger(logger))
	r.Use(apimw.CORS)
	r.Use(chimw.Recoverer)

	health := apihandler.NewHealthHandler(s.Pool())
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	if deps == nil {
		deps = &RouterDeps{}
	}

	r.Route("/api/v1", func(r chi.Router) {
		ingest := apihandler.NewIngestHandler(logger, s, deps.MinIO, orch)
		r.Post("/crawl", ingest.Crawl)

		// Upload requires object storage for staging.
		if deps.MinIO != nil {
			r.Post("/upload", ingest.Upload)
		}

		ops := apihandler.NewOperationHandler(logger, tracker, orch)
		r.Route("/operations", func(r chi.Router) {
			r.Get("/", ops.List)
			r.Route("/{operationID}", func(r chi.Router) {
				r.Get("/", ops.Get)
				r.Delete("/", ops.Cancel)
			})
		})
	})

	return r
}
