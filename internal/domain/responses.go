package domain

// EntryListResponse is a paginated page of catalog entries.
type EntryListResponse struct {
	Entries  []Entry      `json:"entries"`
	Metadata ListMetadata `json:"metadata"`
}

// ListMetadata contains pagination metadata.
type ListMetadata struct {
	NextCursor string `json:"nextCursor,omitempty"`
	Count      int    `json:"count"`
}

// FacetsResponse carries the aggregate counts for catalog summary display.
type FacetsResponse struct {
	Platforms map[string]int `json:"platforms"`
	Types     map[string]int `json:"types"`
}

// FailuresResponse is the validation report consumed by CI.
type FailuresResponse struct {
	Failures []Failure `json:"failures"`
	Count    int       `json:"count"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string      `json:"status"`
	RepoURL      string      `json:"repo_url"`
	Branch       string      `json:"branch"`
	CommitSHA    string      `json:"commit_sha"`
	LastBuiltAt  string      `json:"last_built_at"`
	IndexStatus  string      `json:"index_status"`
	EntryCount   int         `json:"entry_count"`
	FailureCount int         `json:"failure_count"`
	CacheStats   *CacheStats `json:"cache_stats,omitempty"`
}

// CacheStats contains validation cache statistics.
type CacheStats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	HitRate  float64 `json:"hit_rate"`
}

// PingResponse represents the ping response.
type PingResponse struct {
	Pong bool `json:"pong"`
}

// VersionResponse represents the version info response.
type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// NotImplementedResponse for write endpoints.
type NotImplementedResponse struct {
	Status  int    `json:"status"`
	Title   string `json:"title"`
	Detail  string `json:"detail"`
	SeeAlso string `json:"see_also"`
}
