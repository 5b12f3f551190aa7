package session

import (
	"sync"

	"github.com/veracity-ai/veracity/core"
)

// InMemoryStore is a volatile SessionStore backed by a process-local map.
// Pipeline runs are single-process, so this is the store the facade wires
// by default. Every session handed out is a clone; callers mutate their
// copy and commit changes back through AppendEvent/ApplyDelta.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Get returns a clone of an existing session, creating one lazily for
// unknown IDs.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return session.Clone(), nil
	}
	return s.createSessionLocked(sessionID).Clone(), nil
}

// Create forces the creation (or overwriting) of a session with the given id.
func (s *InMemoryStore) Create(sessionID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createSessionLocked(sessionID).Clone(), nil
}

// AppendEvent adds an event to an existing or newly created session.
func (s *InMemoryStore) AppendEvent(sessionID string, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createSessionLocked(sessionID)
	}
	sess.AddEvent(ev)
	return nil
}

// ApplyDelta merges a key/value delta into the session state.
func (s *InMemoryStore) ApplyDelta(sessionID string, delta map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createSessionLocked(sessionID)
	}
	sess.ApplyStateDelta(delta)
	return nil
}

// createSessionLocked allocates and stores a new session. The caller must
// hold the lock.
func (s *InMemoryStore) createSessionLocked(sessionID string) *core.Session {
	sess := core.NewSession(sessionID)
	s.sessions[sessionID] = sess
	return sess
}
