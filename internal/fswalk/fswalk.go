// Package fswalk discovers catalog documents on the local filesystem. It is
// the directory-walking collaborator used by catalogctl and tests; the
// service discovers documents from the git store instead.
package fswalk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentcatalog/server/internal/domain"
)

// DefaultGlob matches every Markdown file under the root.
const DefaultGlob = "**/*.md"

// Source yields documents from a directory tree. Paths are reported
// relative to Root with forward slashes, in lexical walk order.
type Source struct {
	Root string
	Glob string
}

// Documents walks the root and returns every file matching the glob.
func (s Source) Documents(ctx context.Context) ([]domain.Document, error) {
	glob := s.Glob
	if glob == "" {
		glob = DefaultGlob
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid glob pattern: %s", glob)
	}

	var docs []domain.Document
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if matched, _ := doublestar.Match(glob, rel); !matched {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}

		docs = append(docs, domain.Document{
			SourcePath: rel,
			Content:    string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}
