package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentcatalog/server/internal/catalog"
	"github.com/agentcatalog/server/internal/sync"
)

// Config holds API router configuration.
type Config struct {
	Catalog       *catalog.Catalog
	Repo          RepoInfo
	SyncManager   *sync.Manager
	WebhookSecret string
	Logger        *slog.Logger
}

// NewRouter creates a new HTTP router with all API routes.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	// Base middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	handlers := NewHandlers(cfg.Catalog, cfg.Repo, cfg.Logger)
	webhookHandler := sync.NewWebhookHandler(
		cfg.WebhookSecret,
		cfg.SyncManager,
		cfg.Repo.Branch(),
		cfg.Logger,
	)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/webhooks/github", webhookHandler.ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		// Health endpoints
		r.Get("/health", handlers.Health)
		r.Get("/ping", handlers.Ping)
		r.Get("/version", handlers.Version)

		// Catalog queries consumed by the website collaborator
		r.Get("/entries", handlers.ListEntries)
		r.Get("/entries/*", handlers.GetEntry)
		r.Get("/facets", handlers.Facets)

		// Validation report consumed by CI
		r.Get("/failures", handlers.Failures)

		// Write endpoints (return 501, GitOps only)
		r.Post("/entries", handlers.NotImplemented)
		r.Put("/entries/*", handlers.NotImplemented)
		r.Delete("/entries/*", handlers.NotImplemented)
	})

	return r
}
