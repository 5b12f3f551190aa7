package core

// MemoryStore persists and recalls evidence snippets shared between research
// workers within a session. Search may be backed by embeddings, keywords or
// any heuristic the implementation chooses. Short method names align with the
// other *Store interfaces.
type MemoryStore interface {
	Get(sessionID string) (map[string]any, error)
	Put(sessionID string, delta map[string]any) error
	Search(sessionID string, query string, limit int) ([]SearchResult, error)
	Store(sessionID string, content string, metadata map[string]any) error
	Delete(sessionID string, memoryID string) error
}
