package domain

import "sort"

// Facet names a field entries can be filtered by.
type Facet string

// Facets exposed to the website collaborator.
const (
	FacetPlatform Facet = "platform"
	FacetType     Facet = "type"
	FacetTag      Facet = "tag"
	FacetCategory Facet = "category"
)

// Index is the aggregate result of one indexing run: every successfully
// validated document keyed by source path, plus every failure in input
// order. An Index is built wholesale and never mutated afterwards.
type Index struct {
	Entries  map[string]Entry `json:"entries"`
	Failures []Failure        `json:"failures"`
}

// NewIndex returns an empty index ready for aggregation.
func NewIndex() *Index {
	return &Index{Entries: make(map[string]Entry)}
}

// Get returns the entry for a source path.
func (idx *Index) Get(sourcePath string) (Entry, bool) {
	e, ok := idx.Entries[sourcePath]
	return e, ok
}

// Paths returns all indexed source paths in sorted order.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.Entries))
	for p := range idx.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Filter returns the entries whose facet equals value, sorted by source path.
func (idx *Index) Filter(facet Facet, value string) []Entry {
	var results []Entry
	for _, p := range idx.Paths() {
		e := idx.Entries[p]
		if facetMatches(e, facet, value) {
			results = append(results, e)
		}
	}
	return results
}

// CountByPlatform returns entry counts per platform.
func (idx *Index) CountByPlatform() map[string]int {
	counts := make(map[string]int)
	for _, e := range idx.Entries {
		counts[e.Platform]++
	}
	return counts
}

// CountByType returns entry counts per document type.
func (idx *Index) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, e := range idx.Entries {
		counts[e.Type]++
	}
	return counts
}

// Filters holds the facet constraints of a list query. Zero values match
// everything.
type Filters struct {
	Platform string
	Type     string
	Tag      string
	Category string
}

// Match reports whether an entry satisfies every set constraint.
func (f Filters) Match(e Entry) bool {
	if f.Platform != "" && e.Platform != f.Platform {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Tag != "" && !hasTag(e, f.Tag) {
		return false
	}
	return true
}

func facetMatches(e Entry, facet Facet, value string) bool {
	switch facet {
	case FacetPlatform:
		return e.Platform == value
	case FacetType:
		return e.Type == value
	case FacetCategory:
		return e.Category == value
	case FacetTag:
		return hasTag(e, value)
	default:
		return false
	}
}

func hasTag(e Entry, tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
