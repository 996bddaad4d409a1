package domain

// Document types recognized by the catalog schema.
const (
	TypeSubagent = "subagent"
	TypeSkill    = "skill"
)

// Platforms recognized by the catalog schema. The set is closed on purpose:
// an unknown platform invalidates the document instead of leaking a new
// facet value into the website's filters.
var Platforms = []string{
	"cursor", "openclaw", "windsurf", "aider", "continue", "cody", "copilot", "other",
}

// Document is one discovered catalog file before validation.
type Document struct {
	SourcePath string
	Content    string
}

// Entry is the validated representation of one document's frontmatter.
// Field declaration order is the order violations are reported in.
type Entry struct {
	Name            string   `json:"name" yaml:"name" validate:"required"`
	Description     string   `json:"description" yaml:"description" validate:"required"`
	Type            string   `json:"type" yaml:"type" validate:"required,oneof=subagent skill"`
	Platform        string   `json:"platform" yaml:"platform" validate:"required,oneof=cursor openclaw windsurf aider continue cody copilot other"`
	Category        string   `json:"category,omitempty" yaml:"category,omitempty"`
	RecommendedLLMs []string `json:"recommendedLLMs,omitempty" yaml:"recommendedLLMs,omitempty"`
	Tags            []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Author          string   `json:"author,omitempty" yaml:"author,omitempty"`
	Version         string   `json:"version,omitempty" yaml:"version,omitempty"`

	Body       string `json:"-" yaml:"-"`
	SourcePath string `json:"sourcePath" yaml:"-"`
}

// FieldOrder is the fixed reporting order for field-level violations.
var FieldOrder = []string{
	"name", "description", "type", "platform",
	"category", "recommendedLLMs", "tags", "author", "version",
}

// Outcome is the result of validating a single document: either a parsed
// Entry or a list of reasons, never both.
type Outcome struct {
	Entry   *Entry
	Reasons []string
}

// Valid reports whether the document passed validation.
func (o Outcome) Valid() bool {
	return o.Entry != nil
}

// ValidOutcome wraps a parsed entry.
func ValidOutcome(e *Entry) Outcome {
	return Outcome{Entry: e}
}

// InvalidOutcome wraps one or more violation reasons.
func InvalidOutcome(reasons ...string) Outcome {
	return Outcome{Reasons: reasons}
}

// Failure records a document that did not make it into the index.
type Failure struct {
	SourcePath string   `json:"sourcePath"`
	Reasons    []string `json:"reasons"`
}
