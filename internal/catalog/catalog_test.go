package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcatalog/server/internal/domain"
)

type fakeSource struct {
	docs []domain.Document
	err  error
}

func (f *fakeSource) Documents(ctx context.Context) ([]domain.Document, error) {
	return f.docs, f.err
}

func newTestCatalog(t *testing.T, docs []domain.Document) (*Catalog, *fakeSource) {
	t.Helper()
	src := &fakeSource{docs: docs}
	cat, err := New(Config{Source: src, CacheSize: 16, Workers: 2})
	require.NoError(t, err)
	return cat, src
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	cat, err := New(Config{Source: &fakeSource{}})
	require.NoError(t, err)
	assert.Equal(t, "not_built", cat.IndexStatus())
}

func TestRebuild(t *testing.T) {
	cat, _ := newTestCatalog(t, []domain.Document{
		doc("catalog/cursor/a.md", "A"),
		doc("catalog/windsurf/b.md", "B"),
		invalidDoc("catalog/cursor/broken.md"),
	})

	require.NoError(t, cat.Rebuild(context.Background()))

	assert.Equal(t, "valid", cat.IndexStatus())
	assert.Equal(t, 2, cat.EntryCount())
	assert.Equal(t, 1, cat.FailureCount())
	assert.False(t, cat.LastBuiltAt().IsZero())

	entry, err := cat.GetEntry("catalog/cursor/a.md")
	require.NoError(t, err)
	assert.Equal(t, "A", entry.Name)

	_, err = cat.GetEntry("catalog/cursor/missing.md")
	assert.Error(t, err)
}

func TestRebuildSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("remote gone")}
	cat, err := New(Config{Source: src})
	require.NoError(t, err)

	err = cat.Rebuild(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "not_built", cat.IndexStatus())
}

func TestRebuildMemoizesUnchangedDocuments(t *testing.T) {
	cat, src := newTestCatalog(t, []domain.Document{
		doc("a.md", "A"),
		doc("b.md", "B"),
	})

	require.NoError(t, cat.Rebuild(context.Background()))
	stats := cat.CacheStats()
	assert.Equal(t, 2, stats.Size)
	assert.Zero(t, stats.HitRate)

	// Unchanged content: second rebuild should be all cache hits.
	require.NoError(t, cat.Rebuild(context.Background()))
	stats = cat.CacheStats()
	assert.InDelta(t, 0.5, stats.HitRate, 0.01)

	// Changed content must be revalidated, not served stale.
	src.docs[0] = doc("a.md", "Renamed")
	require.NoError(t, cat.Rebuild(context.Background()))

	entry, err := cat.GetEntry("a.md")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", entry.Name)
}

func TestRebuildSwapsSnapshotWholesale(t *testing.T) {
	cat, src := newTestCatalog(t, []domain.Document{doc("a.md", "A")})
	require.NoError(t, cat.Rebuild(context.Background()))

	before := cat.Snapshot()
	require.NotNil(t, before)

	src.docs = []domain.Document{doc("b.md", "B")}
	require.NoError(t, cat.Rebuild(context.Background()))

	// Old snapshot is untouched; the catalog now serves a fresh one.
	_, ok := before.Get("a.md")
	assert.True(t, ok)
	_, ok = cat.Snapshot().Get("a.md")
	assert.False(t, ok)
	_, ok = cat.Snapshot().Get("b.md")
	assert.True(t, ok)
}

func TestListEntries(t *testing.T) {
	cat, _ := newTestCatalog(t, []domain.Document{
		doc("a.md", "A"),
		doc("b.md", "B"),
		doc("c.md", "C"),
		doc("d.md", "D"),
		doc("e.md", "E"),
	})
	require.NoError(t, cat.Rebuild(context.Background()))

	t.Run("not built", func(t *testing.T) {
		empty, err := New(Config{Source: &fakeSource{}})
		require.NoError(t, err)
		_, err = empty.ListEntries("", 10, domain.Filters{})
		assert.Error(t, err)
	})

	t.Run("pagination", func(t *testing.T) {
		page1, err := cat.ListEntries("", 2, domain.Filters{})
		require.NoError(t, err)
		require.Len(t, page1.Entries, 2)
		assert.Equal(t, "a.md", page1.Entries[0].SourcePath)
		assert.Equal(t, "b.md", page1.Metadata.NextCursor)

		page2, err := cat.ListEntries(page1.Metadata.NextCursor, 2, domain.Filters{})
		require.NoError(t, err)
		require.Len(t, page2.Entries, 2)
		assert.Equal(t, "c.md", page2.Entries[0].SourcePath)

		page3, err := cat.ListEntries(page2.Metadata.NextCursor, 2, domain.Filters{})
		require.NoError(t, err)
		require.Len(t, page3.Entries, 1)
		assert.Empty(t, page3.Metadata.NextCursor)
	})

	t.Run("filters", func(t *testing.T) {
		resp, err := cat.ListEntries("", 10, domain.Filters{Platform: "cursor"})
		require.NoError(t, err)
		assert.Equal(t, 5, resp.Metadata.Count)

		resp, err = cat.ListEntries("", 10, domain.Filters{Platform: "aider"})
		require.NoError(t, err)
		assert.Zero(t, resp.Metadata.Count)
	})
}

func TestFacets(t *testing.T) {
	cat, _ := newTestCatalog(t, []domain.Document{
		doc("a.md", "A"),
		doc("b.md", "B"),
	})
	require.NoError(t, cat.Rebuild(context.Background()))

	facets, err := cat.Facets()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"cursor": 2}, facets.Platforms)
	assert.Equal(t, map[string]int{"subagent": 2}, facets.Types)
}

func TestFailuresReport(t *testing.T) {
	cat, _ := newTestCatalog(t, []domain.Document{
		invalidDoc("bad1.md"),
		doc("good.md", "G"),
		invalidDoc("bad2.md"),
	})
	require.NoError(t, cat.Rebuild(context.Background()))

	failures := cat.Failures()
	require.Len(t, failures, 2)
	// Discovery order preserved.
	assert.Equal(t, "bad1.md", failures[0].SourcePath)
	assert.Equal(t, "bad2.md", failures[1].SourcePath)
}
