package testutil

import (
	"github.com/veracity-ai/veracity/core"
)

// SessionBuilder constructs sessions for tests with fluent chaining.
// Typical use is seeding a session with stage outputs so a later stage
// can be exercised in isolation:
//
//	sess := NewSessionBuilder("sess-1").State("claims", claimsJSON).Build()
type SessionBuilder struct {
	id     string
	state  map[string]any
	events []core.Event
}

// NewSessionBuilder creates a builder for a session with the given id.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, state: map[string]any{}}
}

// State sets a state key on the resulting session.
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// Event appends a single event to the session history.
func (b *SessionBuilder) Event(ev core.Event) *SessionBuilder {
	b.events = append(b.events, ev)
	return b
}

// Events appends multiple events to the session history.
func (b *SessionBuilder) Events(evs ...core.Event) *SessionBuilder {
	b.events = append(b.events, evs...)
	return b
}

// Build returns a *core.Session with the accumulated state and events.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id)

	for k, v := range b.state {
		s.State[k] = v
	}

	s.Events = append(s.Events, b.events...)

	return s
}
