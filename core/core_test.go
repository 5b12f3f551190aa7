package core

import (
	"context"
)

type testLogger struct{}

func (l testLogger) Debug(string, ...interface{}) {}
func (l testLogger) Info(string, ...interface{})  {}
func (l testLogger) Warn(string, ...interface{})  {}
func (l testLogger) Error(string, ...interface{}) {}

type mockSessionStore struct {
	applied map[string]map[string]interface{}
}

func (s *mockSessionStore) Get(id string) (*Session, error)       { return NewSession(id), nil }
func (s *mockSessionStore) Create(id string) (*Session, error)    { return NewSession(id), nil }
func (s *mockSessionStore) AppendEvent(id string, ev Event) error { return nil }
func (s *mockSessionStore) ApplyDelta(id string, delta map[string]interface{}) error {
	if s.applied == nil {
		s.applied = map[string]map[string]interface{}{}
	}
	cp := map[string]interface{}{}
	for k, v := range delta {
		cp[k] = v
	}
	s.applied[id] = cp
	return nil
}

type mockArtifactStore struct{ saved map[string]map[string][]byte }

func (a *mockArtifactStore) Save(sid, aid string, data []byte) error {
	if a.saved == nil {
		a.saved = map[string]map[string][]byte{}
	}
	if _, ok := a.saved[sid]; !ok {
		a.saved[sid] = map[string][]byte{}
	}
	a.saved[sid][aid] = append([]byte{}, data...)
	return nil
}
func (a *mockArtifactStore) Get(sid, aid string) ([]byte, error) {
	if a.saved == nil {
		return nil, nil
	}
	if m, ok := a.saved[sid]; ok {
		return m[aid], nil
	}
	return nil, nil
}
func (a *mockArtifactStore) List(sid string) ([]string, error) {
	if a.saved == nil {
		return []string{}, nil
	}
	m := a.saved[sid]
	res := []string{}
	for k := range m {
		res = append(res, k)
	}
	return res, nil
}
func (a *mockArtifactStore) Delete(sid, aid string) error { return nil }

type mockMemoryStore struct{}

func (m *mockMemoryStore) Get(sessionID string) (map[string]any, error) {
	return map[string]any{}, nil
}
func (m *mockMemoryStore) Put(sessionID string, delta map[string]any) error { return nil }
func (m *mockMemoryStore) Search(sid, q string, limit int) ([]SearchResult, error) {
	return []SearchResult{}, nil
}
func (m *mockMemoryStore) Store(sid, content string, metadata map[string]interface{}) error {
	return nil
}
func (m *mockMemoryStore) Delete(sid, memoryID string) error { return nil }

// newRunContextForTest wires a run context against the mock stores with
// an unlimited model call budget.
func newRunContextForTest() (*RunContext, chan Event) {
	emit := make(chan Event, 5)
	resume := make(chan struct{}, 5)
	sess := NewSession("sess-x")
	return NewRunContext(context.Background(), "sess-x", "run-x", AgentInfo{Name: "Agent1", Type: "test"}, Content{}, 0, emit, resume, sess, &mockSessionStore{}, &mockArtifactStore{}, &mockMemoryStore{}, testLogger{}), emit
}
