// Package search provides full-text search over sub-record rows, backed by
// Meilisearch with a PostgreSQL FTS fallback.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	Kind            string `json:"kind"`
	RowID           string `json:"rowId"`
	Date            string `json:"date"`
	ApplicationName string `json:"applicationName"`
	Title           string `json:"title"`
	Snippet         string `json:"snippet"`
	Status          string `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text              string
	FilterApplication string
	FilterKind        string // empty = all kinds
	Limit             int
	Offset            int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// RowRecord is the data indexed for one sub-record row.
type RowRecord struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	Date            string `json:"date"`
	ApplicationName string `json:"applicationName"`
	Text            string `json:"text"`
	Number          string `json:"number"`
	Status          string `json:"status"`
}
