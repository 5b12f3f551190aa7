package artifact

import "sync"

// InMemoryStore is an in-process ArtifactStore that holds report artifacts in
// a nested map guarded by an RWMutex. Data is copied on save and retrieval so
// callers cannot mutate internal buffers.
//
// Layout: sessionID -> artifactID -> raw bytes
//
// There are no retention limits, size quotas or eviction; artifacts live for
// the lifetime of the process. Swap in a durable implementation when reports
// must survive restarts.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]byte // sessionID -> artifactID -> data
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string]map[string][]byte)}
}

// Save writes the artifact bytes for the session, overwriting any prior
// version. The input slice is copied.
func (s *InMemoryStore) Save(sessionID, artifactID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.artifacts[sessionID]; !exists {
		s.artifacts[sessionID] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.artifacts[sessionID][artifactID] = cp
	return nil
}

// Get returns a copy of the stored bytes, or ErrNotFound.
func (s *InMemoryStore) Get(sessionID, artifactID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.artifacts[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := m[artifactID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns a snapshot of the artifact ids stored for the session.
func (s *InMemoryStore) List(sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.artifacts[sessionID]
	if !ok {
		return []string{}, nil
	}
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes the artifact, returning ErrNotFound if absent.
func (s *InMemoryStore) Delete(sessionID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.artifacts[sessionID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[artifactID]; !ok {
		return ErrNotFound
	}
	delete(m, artifactID)
	return nil
}
