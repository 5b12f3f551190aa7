// Package flow drives the model-call loop for pipeline stages.
//
// A flow takes a stage agent, assembles the model request from its
// instructions, session history and registered tools, streams the
// response back as events, and runs any tool calls the model asks
// for. Stages stay declarative; the flow owns the loop.
package flow

import (
	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/model"
	"github.com/veracity-ai/veracity/tool"
)

// Flow executes one stage agent against a run context.
type Flow interface {
	// Execute runs the flow and returns a channel of events that
	// represent the execution progress. The channel is closed when
	// the stage has produced its final response.
	Execute(runCtx *core.RunContext) (<-chan core.Event, error)
}

// FlowAgent is the view of a stage agent that a flow needs.
//
// It deliberately exposes capabilities rather than the agent
// implementation, so any stage (extractor, researcher, adjudicator)
// can be driven by the same loop.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model backing the stage.
	GetLLM() model.Model

	// ResolveInstructions renders the stage instructions against the
	// current session state.
	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the tools the stage advertises to the model.
	GetTools() map[string]tool.Tool

	// IsFunctionCallingEnabled reports whether tool use is enabled.
	IsFunctionCallingEnabled() bool

	// IsStreamingEnabled reports whether partial responses are streamed.
	IsStreamingEnabled() bool

	// GetOutputKey returns the session state key the final response is
	// committed under, or "" to skip the commit.
	GetOutputKey() string

	// MaxHistoryMessages caps how much conversation history is replayed
	// into each request.
	MaxHistoryMessages() int

	// ExecuteTool runs a named tool with JSON-encoded arguments.
	ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (interface{}, error)
}

// RequestProcessor mutates the model request before it is sent.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request in place.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor inspects the model response after it arrives.
type ResponseProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessResponse handles the response and may emit additional events.
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
