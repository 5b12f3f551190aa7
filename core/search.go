package core

// SearchResult is one recalled memory item. Research workers store evidence
// snippets and recall them by query; Score carries the store's relevance
// estimate and Metadata typically holds the source URL and the saving agent.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}
