package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/flow"
	"github.com/veracity-ai/veracity/model"
	"github.com/veracity-ai/veracity/tool"
)

// ModelAgentOptions configure a ModelAgent. Pipeline stages typically set
// Instruction, OutputKey and EnableFunctionCalling; the remaining fields keep
// their defaults.
type ModelAgentOptions struct {
	Instruction           Instruction
	EnableStreaming       bool
	EnableFunctionCalling bool
	ToolTimeout           time.Duration
	OutputKey             string
	MaxHistoryMessages    int
	Tools                 map[string]tool.Tool
}

// ModelAgent is the LLM-backed leaf agent. Every reasoning stage of the
// pipeline (claim structuring, gap identification, research workers, evidence
// adjudication) is a ModelAgent with a stage-specific instruction, an output
// key for its answer, and optionally a set of tools.
//
// It embeds BaseAgent for lifecycle and hierarchy, and delegates each turn to
// a single-agent flow.
type ModelAgent struct {
	BaseAgent
	llm                   model.Model
	instruction           Instruction
	tools                 map[string]tool.Tool
	enableFunctionCalling bool
	enableStreaming       bool
	toolTimeout           time.Duration
	outputKey             string
	maxHistoryMessages    int
}

// NewModelAgent creates a model-backed agent. Defaults: streaming off (stages
// consume whole answers), function calling on, 30s tool timeout, 20-message
// history window.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:           NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		EnableStreaming:       false,
		EnableFunctionCalling: true,
		ToolTimeout:           30 * time.Second,
		MaxHistoryMessages:    20,
		Tools:                 make(map[string]tool.Tool),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelAgent{
		BaseAgent:             NewBaseAgent(name),
		llm:                   llm,
		instruction:           opts.Instruction,
		enableStreaming:       opts.EnableStreaming,
		enableFunctionCalling: opts.EnableFunctionCalling,
		toolTimeout:           opts.ToolTimeout,
		outputKey:             opts.OutputKey,
		maxHistoryMessages:    opts.MaxHistoryMessages,
		tools:                 opts.Tools,
	}
}

// RegisterTool makes a tool available to the model when function calling is
// enabled.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	a.tools[t.Name()] = t
}

// RegisterTools registers multiple tools at once.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool reports whether a tool with the given name is registered.
func (a *ModelAgent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// Flow integration. The methods below satisfy flow.FlowAgent so the agent
// can be driven by a SingleAgentFlow.

// GetName returns the agent's display name.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM returns the language model instance.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// GetTools returns a copy of the registered tool set.
func (a *ModelAgent) GetTools() map[string]tool.Tool {
	tools := make(map[string]tool.Tool, len(a.tools))
	for name, t := range a.tools {
		tools[name] = t
	}
	return tools
}

// IsFunctionCallingEnabled reports whether tools are advertised to the model.
func (a *ModelAgent) IsFunctionCallingEnabled() bool { return a.enableFunctionCalling }

// IsStreamingEnabled reports whether partial responses are requested.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// GetOutputKey returns the session state key the agent's final answer is
// committed under, or "" when the answer is not persisted.
func (a *ModelAgent) GetOutputKey() string { return a.outputKey }

// MaxHistoryMessages returns the conversation history window size.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// ResolveInstructions produces the system prompt from the static or dynamic
// instruction source.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// ExecuteTool parses JSON arguments and invokes the named tool.
func (a *ModelAgent) ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (interface{}, error) {
	t, exists := a.tools[toolName]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", toolName)
	}

	argsMap := make(map[string]interface{})
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argsMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}

	return t.Call(toolCtx, argsMap)
}

// Run implements core.Agent by executing a single-agent flow and forwarding
// its events to the run's emit channel.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "run", runCtx.RunID)

	ctx := runCtx.Context

	fl := flow.NewSingleAgentFlow(a)

	eventChan, err := fl.Execute(runCtx)
	if err != nil {
		runCtx.LogError("agent.flow.execute.error", "agent", a.Name(), "error", err.Error())
		return fmt.Errorf("flow execution failed: %w", err)
	}

	for event := range eventChan {
		select {
		case runCtx.Emit <- event:
			role := ""
			if event.Content != nil {
				role = event.Content.Role
			}
			runCtx.LogDebug(
				"agent.event.forward",
				"agent", a.Name(),
				"event_id", event.ID,
				"role", role,
				"fn_calls", len(event.GetFunctionCalls()),
			)
		case <-ctx.Done():
			runCtx.LogWarn("agent.run.context_done", "agent", a.Name(), "error", ctx.Err())
			return ctx.Err()
		}
	}

	runCtx.LogDebug("agent.flow.execute.complete", "agent", a.Name())

	return nil
}
