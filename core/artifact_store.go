package core

// ArtifactStore persists binary artifacts produced during a run, most notably
// the final report JSON. Implementations must be safe for concurrent use and
// scope artifacts by session identifier. Short method names (Save/Get/List/
// Delete) mirror the other *Store interfaces.
type ArtifactStore interface {
	Save(sessionID, artifactID string, data []byte) error
	Get(sessionID, artifactID string) ([]byte, error)
	List(sessionID string) ([]string, error)
	Delete(sessionID, artifactID string) error
}
