package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcatalog/server/internal/domain"
)

func doc(path, name string) domain.Document {
	return domain.Document{
		SourcePath: path,
		Content: fmt.Sprintf(`---
name: %s
description: Does something useful.
type: subagent
platform: cursor
---
Body.
`, name),
	}
}

func invalidDoc(path string) domain.Document {
	return domain.Document{
		SourcePath: path,
		Content:    "---\nname: X\ntype: agent\nplatform: cursor\n---\nbody\n",
	}
}

func TestBuildIndexEndToEnd(t *testing.T) {
	idx := BuildIndex([]domain.Document{{
		SourcePath: "catalog/cursor/refactorer.md",
		Content: `---
name: Refactorer
description: Finds SRP violations.
type: subagent
platform: cursor
category: Development
---
Instructions.
`,
	}})

	require.Len(t, idx.Entries, 1)
	assert.Empty(t, idx.Failures)

	e, ok := idx.Get("catalog/cursor/refactorer.md")
	require.True(t, ok)
	assert.Equal(t, "Refactorer", e.Name)
	assert.Equal(t, "Finds SRP violations.", e.Description)
	assert.Equal(t, "subagent", e.Type)
	assert.Equal(t, "cursor", e.Platform)
	assert.Equal(t, "Development", e.Category)
}

func TestBuildIndexPartition(t *testing.T) {
	docs := []domain.Document{
		doc("a.md", "A"),
		invalidDoc("b.md"),
		doc("c.md", "C"),
		{SourcePath: "d.md", Content: "no header\n"},
	}

	idx := BuildIndex(docs)

	// Every document appears in exactly one of entries or failures.
	assert.Equal(t, len(docs), len(idx.Entries)+len(idx.Failures))
	assert.Len(t, idx.Entries, 2)
	require.Len(t, idx.Failures, 2)

	for _, f := range idx.Failures {
		assert.NotEmpty(t, f.Reasons)
		_, indexed := idx.Entries[f.SourcePath]
		assert.False(t, indexed)
	}

	assert.Equal(t, "b.md", idx.Failures[0].SourcePath)
	assert.Equal(t, []string{
		"missing field: description",
		"unknown type: 'agent'",
	}, idx.Failures[0].Reasons)
}

func TestBuildIndexDuplicatePaths(t *testing.T) {
	t.Run("first valid document wins", func(t *testing.T) {
		idx := BuildIndex([]domain.Document{
			doc("same.md", "First"),
			doc("same.md", "Second"),
		})

		require.Len(t, idx.Entries, 1)
		assert.Equal(t, "First", idx.Entries["same.md"].Name)

		require.Len(t, idx.Failures, 1)
		assert.Equal(t, "same.md", idx.Failures[0].SourcePath)
		assert.Equal(t, []string{"duplicate source path"}, idx.Failures[0].Reasons)
	})

	t.Run("duplicate reported even when first is invalid", func(t *testing.T) {
		idx := BuildIndex([]domain.Document{
			invalidDoc("same.md"),
			doc("same.md", "Valid"),
		})

		assert.Empty(t, idx.Entries)
		require.Len(t, idx.Failures, 2)
		assert.Contains(t, idx.Failures[0].Reasons, "missing field: description")
		assert.Equal(t, []string{"duplicate source path"}, idx.Failures[1].Reasons)
	})
}

func TestBuildIndexParallelMatchesSequential(t *testing.T) {
	var docs []domain.Document
	for i := 0; i < 30; i++ {
		switch i % 3 {
		case 0:
			docs = append(docs, doc(fmt.Sprintf("valid-%02d.md", i), fmt.Sprintf("Agent%02d", i)))
		case 1:
			docs = append(docs, invalidDoc(fmt.Sprintf("invalid-%02d.md", i)))
		default:
			docs = append(docs, domain.Document{
				SourcePath: "dup.md",
				Content:    doc("dup.md", "Dup").Content,
			})
		}
	}

	sequential := BuildIndex(docs)

	for _, workers := range []int{2, 4, 8} {
		parallel, err := BuildIndexParallel(context.Background(), docs, workers)
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel, "workers=%d", workers)
	}
}

func TestBuildIndexParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildIndexParallel(ctx, []domain.Document{
		doc("a.md", "A"), doc("b.md", "B"),
	}, 4)
	assert.Error(t, err)
}

func TestBuildIndexEmpty(t *testing.T) {
	idx := BuildIndex(nil)
	assert.Empty(t, idx.Entries)
	assert.Empty(t, idx.Failures)
}
