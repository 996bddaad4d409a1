package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentcatalog/server/internal/catalog"
	"github.com/agentcatalog/server/internal/domain"
)

// Build information (set at compile time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// RepoInfo exposes the catalog repository details shown by health checks.
type RepoInfo interface {
	RepoURL() string
	Branch() string
	CurrentCommit() string
}

// Handlers provides HTTP handlers for the API.
type Handlers struct {
	catalog *catalog.Catalog
	repo    RepoInfo
	logger  *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(cat *catalog.Catalog, repo RepoInfo, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		catalog: cat,
		repo:    repo,
		logger:  logger,
	}
}

// Health returns health check information.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	indexStatus := h.catalog.IndexStatus()
	if indexStatus != "valid" {
		status = "degraded"
	}

	resp := domain.HealthResponse{
		Status:       status,
		RepoURL:      h.repo.RepoURL(),
		Branch:       h.repo.Branch(),
		CommitSHA:    h.repo.CurrentCommit(),
		LastBuiltAt:  h.catalog.LastBuiltAt().Format(time.RFC3339),
		IndexStatus:  indexStatus,
		EntryCount:   h.catalog.EntryCount(),
		FailureCount: h.catalog.FailureCount(),
		CacheStats:   h.catalog.CacheStats(),
	}

	writeJSON(w, http.StatusOK, resp)
}

// Ping returns a simple pong response.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.PingResponse{Pong: true})
}

// Version returns build version information.
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	version := Version
	commit := GitCommit
	buildTime := BuildTime

	if info, ok := debug.ReadBuildInfo(); ok && version == "dev" {
		version = info.Main.Version
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value
			case "vcs.time":
				buildTime = setting.Value
			}
		}
	}

	writeJSON(w, http.StatusOK, domain.VersionResponse{
		Version:   version,
		GitCommit: commit,
		BuildTime: buildTime,
	})
}

// ListEntries returns a paginated, optionally faceted list of entries.
func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cursor := q.Get("cursor")
	limit := 30
	if v := q.Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}

	filters := domain.Filters{
		Platform: q.Get("platform"),
		Type:     q.Get("type"),
		Tag:      q.Get("tag"),
		Category: q.Get("category"),
	}

	resp, err := h.catalog.ListEntries(cursor, limit, filters)
	if err != nil {
		h.logger.Error("failed to list entries", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Service Unavailable",
			"Index not available yet. Try again after the initial build completes.")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetEntry returns a single entry by its source path.
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	sourcePath := chi.URLParam(r, "*")
	if sourcePath == "" {
		writeError(w, http.StatusBadRequest, "Bad Request", "Source path is required")
		return
	}

	decodedPath, err := url.PathUnescape(sourcePath)
	if err != nil {
		decodedPath = sourcePath
	}

	entry, err := h.catalog.GetEntry(decodedPath)
	if err != nil {
		h.logger.Debug("entry not found", "path", decodedPath, "error", err)
		writeError(w, http.StatusNotFound, "Not Found",
			"Entry not found: "+decodedPath)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Facets returns aggregate platform and type counts.
func (h *Handlers) Facets(w http.ResponseWriter, r *http.Request) {
	resp, err := h.catalog.Facets()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Service Unavailable",
			"Index not available yet.")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Failures returns the validation failure report consumed by CI.
func (h *Handlers) Failures(w http.ResponseWriter, r *http.Request) {
	failures := h.catalog.Failures()
	if failures == nil {
		failures = []domain.Failure{}
	}

	writeJSON(w, http.StatusOK, domain.FailuresResponse{
		Failures: failures,
		Count:    len(failures),
	})
}

// NotImplemented returns 501 for write endpoints.
func (h *Handlers) NotImplemented(w http.ResponseWriter, r *http.Request) {
	resp := domain.NotImplementedResponse{
		Status:  http.StatusNotImplemented,
		Title:   "Not Implemented",
		Detail:  "This catalog is read-only. Documents are managed via GitOps workflow.",
		SeeAlso: "Submit a pull request to the catalog repository to add or update documents.",
	}

	writeJSON(w, http.StatusNotImplemented, resp)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, title, detail string) {
	resp := domain.ErrorResponse{
		Status: status,
		Title:  title,
		Detail: detail,
	}
	writeJSON(w, status, resp)
}
