package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agentcatalog/server/internal/domain"
	"github.com/agentcatalog/server/internal/frontmatter"
)

// BuildIndex validates every document and aggregates the results into a
// fresh index. Faults are isolated per document: the build always returns a
// complete index, and every input document lands in exactly one of entries
// or failures.
func BuildIndex(docs []domain.Document) *domain.Index {
	outcomes := make([]domain.Outcome, len(docs))
	for i, doc := range docs {
		outcomes[i] = frontmatter.Validate(doc.SourcePath, doc.Content)
	}
	return mergeOutcomes(docs, outcomes)
}

// BuildIndexParallel validates documents across a bounded worker pool.
// Validation is side-effect-free, so only the final aggregation needs to be
// serialized; merging in input order keeps duplicate detection and failure
// ordering identical to the sequential build.
func BuildIndexParallel(ctx context.Context, docs []domain.Document, workers int) (*domain.Index, error) {
	if workers <= 1 || len(docs) < 2 {
		return BuildIndex(docs), nil
	}

	outcomes := make([]domain.Outcome, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = frontmatter.Validate(doc.SourcePath, doc.Content)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergeOutcomes(docs, outcomes), nil
}

// mergeOutcomes aggregates validation outcomes in input order. On a
// duplicate source path the first write wins and the later document is
// reported as a failure, regardless of either document's own validity.
func mergeOutcomes(docs []domain.Document, outcomes []domain.Outcome) *domain.Index {
	idx := domain.NewIndex()
	seen := make(map[string]struct{}, len(docs))

	for i, doc := range docs {
		if _, dup := seen[doc.SourcePath]; dup {
			idx.Failures = append(idx.Failures, domain.Failure{
				SourcePath: doc.SourcePath,
				Reasons:    []string{"duplicate source path"},
			})
			continue
		}
		seen[doc.SourcePath] = struct{}{}

		if out := outcomes[i]; out.Valid() {
			idx.Entries[doc.SourcePath] = *out.Entry
		} else {
			idx.Failures = append(idx.Failures, domain.Failure{
				SourcePath: doc.SourcePath,
				Reasons:    out.Reasons,
			})
		}
	}

	return idx
}
