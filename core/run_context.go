package core

import (
	"context"
	"fmt"

	"maps"

	"github.com/veracity-ai/veracity/logging"
)

// RunContext carries execution state & helpers for an agent run.
// It encapsulates the mutable, per-invocation execution scope passed to an
// Agent's Run method. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, RunID, Agent info)
//   - Input user Content
//   - Emission / resumption coordination channels
//   - Backing services (session, artifact, memory) for persistence concerns
//   - A working Session snapshot and pending StateDelta / Artifacts to commit
//   - Branch label for hierarchical flows
//
// State mutations performed via SetState accumulate in StateDelta until
// CommitStateDelta or EmitEvent applies them. Cloning produces an isolated
// delta/artifact buffer while keeping references to underlying services.
type RunContext struct {
	Context          context.Context
	SessionID, RunID string
	Agent            AgentInfo
	UserContent      Content
	MaxModelCalls    int
	Emit             chan<- Event
	Resume           <-chan struct{}
	SessionStore     SessionStore
	ArtifactStore    ArtifactStore
	MemoryStore      MemoryStore
	Limiter          *CallLimiter
	Session          *Session
	StateDelta       map[string]any
	Artifacts        []string
	Branch           string

	*loggerAdapter
}

// NewRunContext constructs a RunContext with empty state and
// artifact deltas.
func NewRunContext(
	ctx context.Context,
	sessionID, runID string,
	agent AgentInfo,
	userContent Content,
	maxModelCalls int,
	emit chan<- Event,
	resume <-chan struct{},
	sess *Session,
	sessionStore SessionStore,
	artifactStore ArtifactStore,
	memoryStore MemoryStore,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		SessionID:     sessionID,
		RunID:         runID,
		Agent:         agent,
		UserContent:   userContent,
		MaxModelCalls: maxModelCalls,
		Emit:          emit,
		Resume:        resume,
		Session:       sess,
		SessionStore:  sessionStore,
		ArtifactStore: artifactStore,
		MemoryStore:   memoryStore,
		Limiter:       NewCallLimiter("model", maxModelCalls),
		StateDelta:    map[string]any{},
		Artifacts:     []string{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a staged (delta) value if present, else the persisted session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, true
	}

	if rc.Session != nil {
		return rc.Session.GetState(k)
	}

	return nil, false
}

// SetState stages a state mutation in the in-memory delta buffer.
func (rc *RunContext) SetState(k string, v any) { rc.StateDelta[k] = v }

// ApplyStateDelta merges all pairs from d into the staged StateDelta.
func (rc *RunContext) ApplyStateDelta(d map[string]any) {
	maps.Copy(rc.StateDelta, d)
}

// AddArtifact stages an artifact id to be attached to the next emitted event.
func (rc *RunContext) AddArtifact(id string) { rc.Artifacts = append(rc.Artifacts, id) }

// SaveArtifact stores bytes in the ArtifactStore and stages the id for the next emitted event.
func (rc *RunContext) SaveArtifact(id string, data []byte) error {
	if rc.ArtifactStore == nil {
		return fmt.Errorf("artifact store not configured")
	}

	if err := rc.ArtifactStore.Save(rc.SessionID, id, data); err != nil {
		return err
	}

	rc.AddArtifact(id)

	return nil
}

// GetArtifact retrieves previously saved artifact bytes.
func (rc *RunContext) GetArtifact(id string) ([]byte, error) {
	if rc.ArtifactStore == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return rc.ArtifactStore.Get(rc.SessionID, id)
}

// ListArtifacts returns artifact IDs stored for the session.
func (rc *RunContext) ListArtifacts() ([]string, error) {
	if rc.ArtifactStore == nil {
		return []string{}, nil
	}

	return rc.ArtifactStore.List(rc.SessionID)
}

// SearchMemory queries the MemoryStore for relevant content.
func (rc *RunContext) SearchMemory(q string, limit int) ([]SearchResult, error) {
	if rc.MemoryStore == nil {
		return []SearchResult{}, nil
	}

	return rc.MemoryStore.Search(rc.SessionID, q, limit)
}

// StoreMemory appends content plus metadata to the MemoryStore.
func (rc *RunContext) StoreMemory(content string, md map[string]any) error {
	if rc.MemoryStore == nil {
		return fmt.Errorf("memory store not configured")
	}
	return rc.MemoryStore.Store(rc.SessionID, content, md)
}

// RefreshSession reloads the session snapshot from the SessionStore.
func (rc *RunContext) RefreshSession() error {
	if rc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}

	s, err := rc.SessionStore.Get(rc.SessionID)
	if err != nil {
		return err
	}

	rc.Session = s

	return nil
}

// CommitStateDelta persists the accumulated StateDelta then clears the buffer.
func (rc *RunContext) CommitStateDelta() error {
	if len(rc.StateDelta) == 0 {
		return nil
	}

	if rc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}

	if err := rc.SessionStore.ApplyDelta(rc.SessionID, rc.StateDelta); err != nil {
		return err
	}

	rc.StateDelta = map[string]any{}

	return nil
}

// GetSessionHistory returns all historical events for the session.
func (rc *RunContext) GetSessionHistory() []Event {
	if rc.Session == nil {
		return []Event{}
	}

	return rc.Session.GetEvents()
}

// GetAgentName returns the logical agent name for this invocation.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// GetAgentType returns a categorization label for the agent.
func (rc *RunContext) GetAgentType() string { return rc.Agent.Type }

// Clone returns a shallow copy with deep-copied delta & artifact slices.
func (rc *RunContext) Clone() *RunContext {
	c := &RunContext{
		Context:       rc.Context,
		SessionID:     rc.SessionID,
		RunID:         rc.RunID,
		Agent:         rc.Agent,
		UserContent:   rc.UserContent,
		MaxModelCalls: rc.MaxModelCalls,
		Emit:          rc.Emit,
		Resume:        rc.Resume,
		SessionStore:  rc.SessionStore,
		ArtifactStore: rc.ArtifactStore,
		MemoryStore:   rc.MemoryStore,
		Limiter:       rc.Limiter,
		Session:       rc.Session,
		StateDelta:    map[string]any{},
		Artifacts:     []string{},
		Branch:        rc.Branch,
		loggerAdapter: rc.loggerAdapter,
	}

	maps.Copy(c.StateDelta, rc.StateDelta)

	c.Artifacts = append(c.Artifacts, rc.Artifacts...)

	return c
}

// WithBranch clones the context and sets the Branch label.
func (rc *RunContext) WithBranch(b string) *RunContext {
	c := rc.Clone()
	c.Branch = b
	return c
}

// EmitEvent merges pending StateDelta / Artifacts into the event and emits it.
func (rc *RunContext) EmitEvent(ev Event) error {
	if len(rc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			merged := map[string]any{}
			for k, v := range rc.StateDelta {
				merged[k] = v
			}
			ev.Actions.StateDelta = merged
		} else {
			for k, v := range rc.StateDelta {
				ev.Actions.StateDelta[k] = v
			}
		}
	}

	if len(rc.Artifacts) > 0 {
		if ev.Actions.ArtifactDelta == nil {
			ev.Actions.ArtifactDelta = map[string]int{}
		}
		for _, id := range rc.Artifacts {
			ev.Actions.ArtifactDelta[id] = 1
		}
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	rc.StateDelta = map[string]any{}
	rc.Artifacts = []string{}

	return nil
}

// WaitForResume blocks until Resume signals or context cancellation.
func (rc *RunContext) WaitForResume() error {
	if rc.Resume == nil {
		return nil
	}

	select {
	case <-rc.Resume:
		return nil
	case <-rc.Context.Done():
		return rc.Context.Err()
	}
}
