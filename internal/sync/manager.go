// Package sync keeps the local clone and the catalog index in step with the
// upstream repository, driven by a poll ticker and GitHub push webhooks.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/agentcatalog/server/internal/middleware"
)

// Repository is the part of the git store the manager drives.
type Repository interface {
	PullWithRetry(ctx context.Context, maxRetries int) (bool, error)
	CurrentCommit() string
}

// Rebuilder is the part of the catalog the manager drives.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
	EntryCount() int
	FailureCount() int
}

// Manager handles repository synchronization.
type Manager struct {
	store        Repository
	catalog      Rebuilder
	pollInterval time.Duration
	debounce     time.Duration
	logger       *slog.Logger

	triggerChan chan struct{}
	mu          sync.Mutex
	lastSync    time.Time
	syncing     bool
}

// Config holds sync manager configuration.
type Config struct {
	Store        Repository
	Catalog      Rebuilder
	PollInterval time.Duration
	Debounce     time.Duration
	Logger       *slog.Logger
}

// NewManager creates a new sync manager.
func NewManager(cfg Config) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Manager{
		store:        cfg.Store,
		catalog:      cfg.Catalog,
		pollInterval: cfg.PollInterval,
		debounce:     cfg.Debounce,
		logger:       cfg.Logger,
		triggerChan:  make(chan struct{}, 1),
	}
}

// Start begins the sync manager polling loop.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	m.logger.Info("sync manager started",
		"poll_interval", m.pollInterval,
		"debounce", m.debounce,
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sync manager stopped")
			return

		case <-ticker.C:
			m.doSync(ctx, "poll")

		case <-m.triggerChan:
			// Debounce webhook triggers
			m.debounceSync(ctx)
		}
	}
}

// Trigger initiates a sync (called by the webhook handler).
func (m *Manager) Trigger() {
	select {
	case m.triggerChan <- struct{}{}:
		m.logger.Debug("sync triggered")
	default:
		m.logger.Debug("sync already pending")
	}
}

// LastSyncTime returns the last successful sync time.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSync
}

// IsSyncing returns whether a sync is in progress.
func (m *Manager) IsSyncing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncing
}

func (m *Manager) debounceSync(ctx context.Context) {
	m.mu.Lock()
	if time.Since(m.lastSync) < m.debounce {
		m.mu.Unlock()
		m.logger.Debug("sync debounced", "last_sync", m.lastSync)
		return
	}
	m.mu.Unlock()

	m.doSync(ctx, "webhook")
}

func (m *Manager) doSync(ctx context.Context, source string) {
	m.mu.Lock()
	if m.syncing {
		m.mu.Unlock()
		m.logger.Debug("sync already in progress")
		return
	}
	m.syncing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.syncing = false
		m.mu.Unlock()
	}()

	start := time.Now()
	defer func() {
		middleware.CatalogSyncDuration.Observe(time.Since(start).Seconds())
	}()

	m.logger.Info("starting sync", "source", source)

	changed, err := m.store.PullWithRetry(ctx, 3)
	if err != nil {
		middleware.CatalogSyncErrors.Inc()
		m.logger.Error("sync failed",
			"source", source,
			"error", err,
			"duration", time.Since(start),
		)
		return
	}

	if !changed {
		m.logger.Debug("no changes detected", "source", source)
		m.mu.Lock()
		m.lastSync = time.Now()
		m.mu.Unlock()
		return
	}

	// HEAD moved: rebuild the index wholesale from the new tree.
	if err := m.catalog.Rebuild(ctx); err != nil {
		middleware.CatalogSyncErrors.Inc()
		m.logger.Error("failed to rebuild catalog",
			"source", source,
			"error", err,
		)
		return
	}

	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()

	m.logger.Info("sync completed",
		"source", source,
		"commit", m.store.CurrentCommit(),
		"entries", m.catalog.EntryCount(),
		"failures", m.catalog.FailureCount(),
		"duration", time.Since(start),
	)
}
