// Package frontmatter validates catalog documents: Markdown files whose
// YAML header declares the subagent or skill they describe. Validation is a
// pure function of the document text; malformed input is a modeled outcome,
// never a panic or an error return.
package frontmatter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agentcatalog/server/internal/domain"
)

const delimiter = "---"

// Structural failures. Each maps to exactly one reason in the outcome,
// since field-level checks are meaningless without a parseable header.
var (
	ErrMissingHeader      = errors.New("missing frontmatter header")
	ErrUnterminatedHeader = errors.New("unterminated frontmatter header")
)

// Split separates a document into its YAML header and body. The header must
// open on the first line with a delimiter and close with another.
func Split(text string) (header, body string, err error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != delimiter {
		return "", "", ErrMissingHeader
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", ErrUnterminatedHeader
	}

	header = strings.Join(lines[1:end], "\n")
	body = strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
	return header, body, nil
}

// Validate parses and checks a single document against the catalog schema.
// All field violations are collected and reported together in the fixed
// field order, so a contributor can fix every problem in one pass. Unknown
// header keys are tolerated for forward compatibility.
func Validate(sourcePath, text string) domain.Outcome {
	header, body, err := Split(text)
	if err != nil {
		return domain.InvalidOutcome(err.Error())
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(header), &raw); err != nil {
		return domain.InvalidOutcome("invalid frontmatter YAML: " + flatten(err))
	}

	// Shape violations are recorded per key during extraction; a shape
	// violation suppresses the presence check for the same key so a field
	// is never reported twice.
	shape := make(map[string]string)

	entry := domain.Entry{
		Name:            textField(raw, "name", shape),
		Description:     textField(raw, "description", shape),
		Type:            textField(raw, "type", shape),
		Platform:        textField(raw, "platform", shape),
		Category:        textField(raw, "category", shape),
		RecommendedLLMs: listField(raw, "recommendedLLMs", shape),
		Tags:            normalizeTags(listField(raw, "tags", shape)),
		Author:          textField(raw, "author", shape),
		Version:         textField(raw, "version", shape),
		Body:            body,
		SourcePath:      sourcePath,
	}

	field := domain.ValidateEntry(&entry)

	var reasons []string
	for _, key := range domain.FieldOrder {
		if r, ok := shape[key]; ok {
			reasons = append(reasons, r)
			continue
		}
		if r, ok := field[key]; ok {
			reasons = append(reasons, r)
		}
	}

	if len(reasons) > 0 {
		return domain.InvalidOutcome(reasons...)
	}
	return domain.ValidOutcome(&entry)
}

// textField extracts a scalar header value as trimmed text. Non-string
// scalars (a bare 1.0 version, say) are stringified rather than rejected.
func textField(raw map[string]any, key string, shape map[string]string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := scalarText(v)
	if !ok {
		shape[key] = fmt.Sprintf("invalid shape for field: %s (expected text)", key)
		return ""
	}
	return strings.TrimSpace(s)
}

// listField extracts a sequence-of-text header value. A lone scalar is
// tolerated as a one-element list, matching what contributors actually
// write for single-value tags.
func listField(raw map[string]any, key string, shape map[string]string) []string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}

	switch items := v.(type) {
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := scalarText(item)
			if !ok {
				shape[key] = fmt.Sprintf("invalid shape for field: %s (expected sequence of text)", key)
				return nil
			}
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		s, ok := scalarText(v)
		if !ok {
			shape[key] = fmt.Sprintf("invalid shape for field: %s (expected sequence of text)", key)
			return nil
		}
		if t := strings.TrimSpace(s); t != "" {
			return []string{t}
		}
		return nil
	}
}

func scalarText(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprintf("%v", s), true
	default:
		return "", false
	}
}

// normalizeTags applies set semantics: duplicates removed, order dropped.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// flatten collapses multi-line YAML parser errors into one reason line.
func flatten(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}
