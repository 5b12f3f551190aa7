package testutil

import (
	"github.com/veracity-ai/veracity/core"
)

// EventBuilder assembles events for tests without spelling out the part
// structures by hand:
//
//	ev := NewEventBuilder().Author("researcher").Run("run-1").AssistantText("found it").Build()
//
// Chain only what the test needs; the rest defaults.
type EventBuilder struct {
	author        string
	runID         string
	id            string
	role          string
	textParts     []string
	funcCalls     []core.FunctionCall
	funcResponses []core.FunctionResponse
	partial       *bool
	turnComplete  *bool
	customParts   []core.Part
	actions       core.EventActions
	branch        *string
}

// NewEventBuilder creates a builder with default author "agent".
func NewEventBuilder() *EventBuilder { return &EventBuilder{author: "agent"} }

// Author sets the author name for the event.
func (b *EventBuilder) Author(a string) *EventBuilder { b.author = a; return b }

// Run sets the run ID associated with the event.
func (b *EventBuilder) Run(id string) *EventBuilder { b.runID = id; return b }

// ID overrides the auto-generated event ID for deterministic assertions.
func (b *EventBuilder) ID(id string) *EventBuilder { b.id = id; return b }

// Branch sets the branch path, as a parallel worker would carry.
func (b *EventBuilder) Branch(br string) *EventBuilder { b.branch = &br; return b }

// Partial marks the event as a streaming chunk.
func (b *EventBuilder) Partial(p bool) *EventBuilder { b.partial = &p; return b }

// TurnComplete sets the flag indicating model turn completion.
func (b *EventBuilder) TurnComplete(c bool) *EventBuilder { b.turnComplete = &c; return b }

// UserText appends a user text part and sets the role to user.
func (b *EventBuilder) UserText(t string) *EventBuilder {
	b.role = "user"
	b.textParts = append(b.textParts, t)
	return b
}

// AssistantText appends an assistant text part and sets the role to assistant.
func (b *EventBuilder) AssistantText(t string) *EventBuilder {
	b.role = "assistant"
	b.textParts = append(b.textParts, t)
	return b
}

// ToolText appends a tool text part and sets the role to tool.
func (b *EventBuilder) ToolText(t string) *EventBuilder {
	b.role = "tool"
	b.textParts = append(b.textParts, t)
	return b
}

// AddPart appends a custom content part.
func (b *EventBuilder) AddPart(p core.Part) *EventBuilder {
	b.customParts = append(b.customParts, p)
	return b
}

// FunctionCall adds a function call part with JSON-encoded arguments.
func (b *EventBuilder) FunctionCall(name, args string) *EventBuilder {
	b.funcCalls = append(b.funcCalls, core.FunctionCall{Name: name, Arguments: args})
	return b
}

// FunctionResponse adds a function response part for tool output.
func (b *EventBuilder) FunctionResponse(id, name string, result interface{}, err error) *EventBuilder {
	fr := core.FunctionResponse{ID: id, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	b.funcResponses = append(b.funcResponses, fr)
	return b
}

// StateDelta stages a key/value pair on the event's actions.
func (b *EventBuilder) StateDelta(key string, val any) *EventBuilder {
	if b.actions.StateDelta == nil {
		b.actions.StateDelta = map[string]any{}
	}
	b.actions.StateDelta[key] = val
	return b
}

// Escalate sets the escalate action flag.
func (b *EventBuilder) Escalate() *EventBuilder { t := true; b.actions.Escalate = &t; return b }

// Build constructs the core.Event value.
func (b *EventBuilder) Build() core.Event {
	ev := core.NewEvent(b.runID, b.author)
	if b.id != "" {
		ev.ID = b.id
	}
	if b.branch != nil {
		ev.Branch = b.branch
	}
	if b.partial != nil {
		ev.Partial = b.partial
	}
	if b.turnComplete != nil {
		ev.TurnComplete = b.turnComplete
	}
	ev.Actions = b.actions

	estimatedParts := len(b.textParts) + len(b.funcCalls) + len(b.funcResponses) + len(b.customParts)
	parts := make([]core.Part, 0, estimatedParts)
	for _, t := range b.textParts {
		parts = append(parts, core.TextPart{Text: t})
	}
	for _, fc := range b.funcCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	for _, fr := range b.funcResponses {
		parts = append(parts, core.FunctionResponsePart{FunctionResponse: fr})
	}
	parts = append(parts, b.customParts...)
	if len(parts) > 0 {
		role := b.role
		if role == "" {
			role = "assistant"
		}
		ev.Content = &core.Content{Role: role, Parts: parts}
	}
	return ev
}
