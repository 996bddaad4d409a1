// Package catalog builds and serves the document index: every validated
// entry keyed by source path plus the failure report for everything else.
// The index is rebuilt wholesale on each run and handed out as an immutable
// snapshot.
package catalog

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/agentcatalog/server/internal/domain"
	"github.com/agentcatalog/server/internal/frontmatter"
	"github.com/agentcatalog/server/internal/middleware"
)

// Source yields the documents to index. Implementations must return pairs
// in a deterministic order; the catalog processes them in the order
// received so duplicate detection and failure ordering stay stable.
type Source interface {
	Documents(ctx context.Context) ([]domain.Document, error)
}

// Catalog holds the current index snapshot and a validation memo cache.
type Catalog struct {
	source    Source
	cache     *lru.Cache[string, cachedOutcome]
	index     *domain.Index
	indexMu   sync.RWMutex
	cacheSize int
	workers   int
	logger    *slog.Logger

	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	lastBuiltAt atomic.Value // time.Time
}

// cachedOutcome memoizes a validation result for one source path. The
// content hash guards against stale reuse after a document changes.
type cachedOutcome struct {
	sum     [sha256.Size]byte
	outcome domain.Outcome
}

// Config holds catalog configuration.
type Config struct {
	Source    Source
	CacheSize int
	Workers   int
	Logger    *slog.Logger
}

// New creates a new catalog instance.
func New(cfg Config) (*Catalog, error) {
	if cfg.Source == nil {
		return nil, errors.New("source is required")
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cache, err := lru.New[string, cachedOutcome](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	c := &Catalog{
		source:    cfg.Source,
		cache:     cache,
		cacheSize: cfg.CacheSize,
		workers:   cfg.Workers,
		logger:    cfg.Logger,
	}
	c.lastBuiltAt.Store(time.Time{})

	return c, nil
}

// Rebuild discovers all documents, validates them (reusing memoized
// outcomes for unchanged content), and swaps in a fresh index snapshot.
func (c *Catalog) Rebuild(ctx context.Context) error {
	start := time.Now()

	docs, err := c.source.Documents(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover documents: %w", err)
	}

	outcomes := make([]domain.Outcome, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = c.validateCached(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("index build interrupted: %w", err)
	}

	idx := mergeOutcomes(docs, outcomes)

	c.indexMu.Lock()
	c.index = idx
	c.indexMu.Unlock()
	c.lastBuiltAt.Store(time.Now())

	middleware.CatalogEntriesTotal.Set(float64(len(idx.Entries)))
	middleware.CatalogFailuresTotal.Set(float64(len(idx.Failures)))
	middleware.CatalogIndexValid.Set(1)
	middleware.CatalogCacheSize.Set(float64(c.cache.Len()))

	c.logger.Info("index rebuilt",
		"documents", len(docs),
		"entries", len(idx.Entries),
		"failures", len(idx.Failures),
		"duration", time.Since(start),
	)

	return nil
}

// validateCached returns the memoized outcome when the document content is
// unchanged since the last rebuild, validating afresh otherwise.
func (c *Catalog) validateCached(doc domain.Document) domain.Outcome {
	sum := sha256.Sum256([]byte(doc.Content))

	if cached, ok := c.cache.Get(doc.SourcePath); ok && cached.sum == sum {
		c.cacheHits.Add(1)
		middleware.CatalogCacheHits.Inc()
		return cached.outcome
	}
	c.cacheMisses.Add(1)
	middleware.CatalogCacheMisses.Inc()

	out := frontmatter.Validate(doc.SourcePath, doc.Content)
	c.cache.Add(doc.SourcePath, cachedOutcome{sum: sum, outcome: out})
	return out
}

// Snapshot returns the current index, or nil if no build has completed.
// Callers must treat the snapshot as read-only.
func (c *Catalog) Snapshot() *domain.Index {
	c.indexMu.RLock()
	defer c.indexMu.RUnlock()
	return c.index
}

// GetEntry retrieves an entry by source path.
func (c *Catalog) GetEntry(sourcePath string) (domain.Entry, error) {
	idx := c.Snapshot()
	if idx == nil {
		return domain.Entry{}, errors.New("index not built")
	}
	e, ok := idx.Get(sourcePath)
	if !ok {
		return domain.Entry{}, fmt.Errorf("entry not found: %s", sourcePath)
	}
	return e, nil
}

// ListEntries returns a cursor-paginated page of entries matching the
// filters, sorted by source path for consistent pagination.
func (c *Catalog) ListEntries(cursor string, limit int, filters domain.Filters) (*domain.EntryListResponse, error) {
	idx := c.Snapshot()
	if idx == nil {
		return nil, errors.New("index not built")
	}

	if limit <= 0 {
		limit = 30
	}
	if limit > 100 {
		limit = 100
	}

	var matched []domain.Entry
	for _, p := range idx.Paths() {
		if e := idx.Entries[p]; filters.Match(e) {
			matched = append(matched, e)
		}
	}

	startIdx := 0
	if cursor != "" {
		for i, e := range matched {
			if e.SourcePath == cursor {
				startIdx = i + 1
				break
			}
		}
	}

	endIdx := startIdx + limit
	if endIdx > len(matched) {
		endIdx = len(matched)
	}

	results := make([]domain.Entry, 0, endIdx-startIdx)
	results = append(results, matched[startIdx:endIdx]...)

	var nextCursor string
	if endIdx < len(matched) && len(results) > 0 {
		nextCursor = results[len(results)-1].SourcePath
	}

	return &domain.EntryListResponse{
		Entries: results,
		Metadata: domain.ListMetadata{
			NextCursor: nextCursor,
			Count:      len(results),
		},
	}, nil
}

// Facets returns the aggregate counts for catalog summary display.
func (c *Catalog) Facets() (*domain.FacetsResponse, error) {
	idx := c.Snapshot()
	if idx == nil {
		return nil, errors.New("index not built")
	}
	return &domain.FacetsResponse{
		Platforms: idx.CountByPlatform(),
		Types:     idx.CountByType(),
	}, nil
}

// Failures returns the validation report for the current snapshot, in
// discovery order.
func (c *Catalog) Failures() []domain.Failure {
	idx := c.Snapshot()
	if idx == nil {
		return nil
	}
	return idx.Failures
}

// EntryCount returns the number of entries in the current snapshot.
func (c *Catalog) EntryCount() int {
	idx := c.Snapshot()
	if idx == nil {
		return 0
	}
	return len(idx.Entries)
}

// FailureCount returns the number of failed documents in the current snapshot.
func (c *Catalog) FailureCount() int {
	idx := c.Snapshot()
	if idx == nil {
		return 0
	}
	return len(idx.Failures)
}

// IndexStatus returns the current index status.
func (c *Catalog) IndexStatus() string {
	if c.Snapshot() == nil {
		return "not_built"
	}
	return "valid"
}

// CacheStats returns current validation cache statistics.
func (c *Catalog) CacheStats() *domain.CacheStats {
	hits := c.cacheHits.Load()
	misses := c.cacheMisses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return &domain.CacheStats{
		Size:     c.cache.Len(),
		Capacity: c.cacheSize,
		HitRate:  hitRate,
	}
}

// LastBuiltAt returns the time of the last completed rebuild.
func (c *Catalog) LastBuiltAt() time.Time {
	return c.lastBuiltAt.Load().(time.Time)
}
