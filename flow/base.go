package flow

import (
	"fmt"
	"time"

	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/model"
)

// BaseFlow runs one stage agent through repeated model turns until the
// model produces a final answer. Each turn goes request processors ->
// model -> events, with tool calls executed inline between turns.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
}

// NewBaseFlow creates a flow for a single stage agent.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:              agent,
		requestProcessors:  []RequestProcessor{},
		responseProcessors: []ResponseProcessor{},
	}
}

// AddRequestProcessor appends a request processor. Processors run in
// registration order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor, run on every model chunk.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// Execute launches the flow asynchronously and returns a channel of events.
// The channel is closed once a final response is emitted or an unrecoverable
// error occurs.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, error) {
	eventChan := make(chan core.Event, 100)

	go func() {
		defer close(eventChan)

		for {
			last := f.runOnce(runCtx, eventChan)
			if last == nil {
				break
			}
			// A tool response means the model gets another turn to react.
			if len(last.GetFunctionResponses()) > 0 {
				continue
			}
			if last.IsPartial() {
				runCtx.LogWarn("flow.partial_tail", "agent", f.agent.GetName())
				break
			}
			if last.IsFinalResponse() {
				break
			}
		}
	}()

	return eventChan, nil
}

// emitError surfaces an internal error as a system event on the stream.
// Error events are non-partial, so the runner persists them and pushes a
// resume token like any other event; the flow must claim that token before
// returning.
func (f *BaseFlow) emitError(runCtx *core.RunContext, eventChan chan<- core.Event, err error) {
	ev := core.NewEvent(runCtx.RunID, "system")
	msg := err.Error()
	ev.ErrorMessage = &msg
	eventChan <- ev

	if runCtx.Resume != nil {
		select {
		case <-runCtx.Context.Done():
		case <-runCtx.Resume:
		}
	}
}

// runOnce performs one model turn, including any tool executions, and
// returns the last emitted event. A nil return terminates the flow.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) *core.Event {
	// Refresh the session snapshot so request processors see the latest
	// conversation, including tool responses appended by the runner.
	if runCtx.SessionStore != nil {
		if latest, err := runCtx.SessionStore.Get(runCtx.SessionID); err == nil && latest != nil {
			runCtx.Session = latest
		}
	}

	// Enforce the per-run model call budget before issuing another turn.
	if runCtx.Limiter != nil {
		if err := runCtx.Limiter.Allow(); err != nil {
			f.emitError(runCtx, eventChan, fmt.Errorf("agent %s: %w", f.agent.GetName(), err))
			return nil
		}
	}

	req := new(model.Request)

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			f.emitError(runCtx, eventChan, fmt.Errorf("request processor %s failed: %w", processor.Name(), err))
			return nil
		}
	}

	// Advertise tools only for stages that actually use them.
	tools := f.agent.GetTools()
	if f.agent.IsFunctionCallingEnabled() && len(tools) > 0 {
		toolDefinitions := make([]model.ToolDefinition, 0, len(tools))
		for _, t := range tools {
			toolDefinitions = append(toolDefinitions, model.ToolDefinition{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        t.Name(),
					Description: t.Description(),
					Parameters:  t.Parameters(),
				},
			})
		}

		req.Tools = toolDefinitions
	}

	llm := f.agent.GetLLM()

	respCh, errCh := llm.Generate(runCtx.Context, *req)

	var lastEvent *core.Event

loop:
	for {
		select {
		case resp, ok := <-respCh:
			if !ok {
				break loop
			}

			for _, processor := range f.responseProcessors {
				if err := processor.ProcessResponse(runCtx, &resp, f.agent); err != nil {
					f.emitError(runCtx, eventChan, fmt.Errorf("response processor %s failed: %w", processor.Name(), err))
					return nil
				}
			}

			ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
			ev.Content = &resp.Content
			ev.Partial = &resp.Partial
			if runCtx.Branch != "" {
				branch := runCtx.Branch
				ev.Branch = &branch
			}

			// A non-partial response with no pending tool calls ends the turn.
			if !resp.Partial && len(ev.GetFunctionCalls()) == 0 {
				complete := true
				ev.TurnComplete = &complete

				// Persist the agent's answer under its output key so later
				// pipeline stages can read it from session state.
				if key := f.agent.GetOutputKey(); key != "" {
					if ev.Actions.StateDelta == nil {
						ev.Actions.StateDelta = map[string]any{}
					}
					ev.Actions.StateDelta[key] = resp.Content.Text()
				}
			}

			lastEvent = &ev

			eventChan <- ev

			// The runner sends a resume token once the event is persisted.
			// Block here so the next request sees the appended history.
			if !ev.IsPartial() && runCtx.Resume != nil {
				select {
				case <-runCtx.Context.Done():
					return lastEvent
				case <-runCtx.Resume:
				}
			}

			if fnCalls := ev.GetFunctionCalls(); len(fnCalls) > 0 {
				for _, fnCall := range fnCalls {
					toolCtx := core.NewToolContext(runCtx, fnCall.ID)

					start := time.Now()
					result, err := f.agent.ExecuteTool(toolCtx, fnCall.Name, fnCall.Arguments)
					dur := time.Since(start)

					runCtx.LogInfo("agent.tool.executed", "agent", f.agent.GetName(), "tool", fnCall.Name, "duration_ms", dur.Milliseconds(), "error", err != nil)

					respEv := core.NewFunctionResponseEvent(f.agent.GetName(), fnCall.ID, fnCall.Name, result, err)
					respEv.RunID = runCtx.RunID
					toolCtx.InternalApplyActions(&respEv)

					lastEvent = &respEv

					eventChan <- respEv

					if runCtx.Resume != nil {
						select {
						case <-runCtx.Context.Done():
							return lastEvent
						case <-runCtx.Resume:
						}
					}
				}
			}
		case err, ok := <-errCh:
			if ok && err != nil {
				f.emitError(runCtx, eventChan, fmt.Errorf("model generation failed: %w", err))
				return nil
			}
			break loop
		}
	}

	return lastEvent
}
