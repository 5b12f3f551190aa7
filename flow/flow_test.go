package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/internal/testutil"
	"github.com/veracity-ai/veracity/model"
	"github.com/veracity-ai/veracity/session"
	"github.com/veracity-ai/veracity/tool"
)

// scriptedModel returns one pre-built response per turn, in order. A nil entry
// sends errScript on the error channel instead.
type scriptedModel struct {
	mu       sync.Mutex
	turns    []*model.Response
	requests []model.Request
	turn     int
}

var errScript = errors.New("provider unavailable")

func (m *scriptedModel) Generate(_ context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var resp *model.Response
	if m.turn < len(m.turns) {
		resp = m.turns[m.turn]
	}
	m.turn++
	m.mu.Unlock()

	// The unused channel stays open so the flow's select never races a close
	// against a pending value.
	if resp == nil {
		errCh <- errScript
	} else {
		respCh <- *resp
		close(respCh)
	}

	return respCh, errCh
}

func (m *scriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test", SupportsTools: true}
}

func textTurn(text string) *model.Response {
	return &model.Response{
		Content:      core.NewTextContent("assistant", text),
		FinishReason: "stop",
	}
}

func toolTurn(id, name, args string) *model.Response {
	return &model.Response{
		Content: core.Content{
			Role: "assistant",
			Parts: []core.Part{core.FunctionCallPart{
				FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args},
			}},
		},
		FinishReason: "tool_calls",
	}
}

type testFlowAgent struct {
	name            string
	llm             model.Model
	instructions    string
	tools           map[string]tool.Tool
	functionCalling bool
	outputKey       string
}

func (a *testFlowAgent) GetName() string          { return a.name }
func (a *testFlowAgent) GetLLM() model.Model      { return a.llm }
func (a *testFlowAgent) GetOutputKey() string     { return a.outputKey }
func (a *testFlowAgent) MaxHistoryMessages() int  { return 10 }
func (a *testFlowAgent) IsStreamingEnabled() bool { return false }

func (a *testFlowAgent) ResolveInstructions(*core.RunContext) (string, error) {
	return a.instructions, nil
}

func (a *testFlowAgent) GetTools() map[string]tool.Tool {
	if a.tools == nil {
		return map[string]tool.Tool{}
	}
	return a.tools
}

func (a *testFlowAgent) IsFunctionCallingEnabled() bool { return a.functionCalling }

func (a *testFlowAgent) ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (interface{}, error) {
	t, exists := a.tools[toolName]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", toolName)
	}

	argsMap := make(map[string]interface{})
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argsMap); err != nil {
			return nil, err
		}
	}

	return t.Call(toolCtx, argsMap)
}

// newFlowRunContext builds a RunContext backed by an in-memory session store,
// with enough pre-loaded resume tokens that flows never block on persistence.
func newFlowRunContext(t *testing.T, sess *core.Session, maxModelCalls int) *core.RunContext {
	t.Helper()

	store := session.NewInMemoryStore()
	_, err := store.Create(sess.ID)
	require.NoError(t, err)
	require.NoError(t, store.ApplyDelta(sess.ID, sess.State))
	for _, ev := range sess.Events {
		require.NoError(t, store.AppendEvent(sess.ID, ev))
	}

	resume := make(chan struct{}, 32)
	for i := 0; i < 32; i++ {
		resume <- struct{}{}
	}

	return core.NewRunContext(
		context.Background(), sess.ID, "run-1",
		core.AgentInfo{Name: "TestAgent", Type: "model"},
		core.NewTextContent("user", "hello"),
		maxModelCalls,
		nil, resume, sess, store, nil, nil, nil,
	)
}

func collect(t *testing.T, ch <-chan core.Event) []core.Event {
	t.Helper()
	var events []core.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestSingleAgentFlowFinalResponse(t *testing.T) {
	llm := &scriptedModel{turns: []*model.Response{textTurn("The claim is accurate.")}}
	ag := &testFlowAgent{
		name:         "Checker",
		llm:          llm,
		instructions: "You verify claims.",
		outputKey:    "verdict",
	}

	userEv := testutil.NewEventBuilder().Run("run-1").Author("user").UserText("is this true?").Build()
	sess := testutil.NewSessionBuilder("s1").Event(userEv).Build()
	runCtx := newFlowRunContext(t, sess, 0)

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 1)

	final := events[0]
	assert.True(t, final.IsFinalResponse())
	assert.Equal(t, "Checker", final.Author)
	assert.Equal(t, "The claim is accurate.", final.Content.Text())
	assert.Equal(t, "The claim is accurate.", final.Actions.StateDelta["verdict"])
}

func TestFlowRendersInstructionTemplate(t *testing.T) {
	llm := &scriptedModel{turns: []*model.Response{textTurn("ok")}}
	ag := &testFlowAgent{
		name:         "Templated",
		llm:          llm,
		instructions: "Investigate this claim: {{.claim}}",
	}

	sess := testutil.NewSessionBuilder("s1").
		State("claim", "the bridge opened in 1932").
		Event(testutil.NewEventBuilder().Author("user").UserText("go").Build()).
		Build()
	runCtx := newFlowRunContext(t, sess, 0)

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)
	collect(t, ch)

	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	assert.Equal(t, "Investigate this claim: the bridge opened in 1932", req.Instructions)

	// The rendered instructions lead the conversation as a system message.
	require.NotEmpty(t, req.Contents)
	assert.Equal(t, "system", req.Contents[0].Role)
	assert.Contains(t, req.Contents[0].Text(), "the bridge opened in 1932")
}

func TestFlowStampsBranch(t *testing.T) {
	llm := &scriptedModel{turns: []*model.Response{textTurn("done")}}
	ag := &testFlowAgent{name: "Worker", llm: llm}

	sess := testutil.NewSessionBuilder("s1").
		Event(testutil.NewEventBuilder().Author("user").UserText("go").Build()).
		Build()
	runCtx := newFlowRunContext(t, sess, 0)
	runCtx.Branch = "Pipeline.Worker"

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Branch)
	assert.Equal(t, "Pipeline.Worker", *events[0].Branch)
}

func TestFlowFiltersHistoryByBranch(t *testing.T) {
	llm := &scriptedModel{turns: []*model.Response{textTurn("done")}}
	ag := &testFlowAgent{name: "Worker1", llm: llm}

	sess := testutil.NewSessionBuilder("s1").
		Event(testutil.NewEventBuilder().Author("user").UserText("go").Build()).
		Event(testutil.NewEventBuilder().Author("Planner").Branch("Research").AssistantText("plan").Build()).
		Event(testutil.NewEventBuilder().Author("Worker2").Branch("Research.Worker2").AssistantText("sibling answer").Build()).
		Event(testutil.NewEventBuilder().Author("Worker1").Branch("Research.Worker1").AssistantText("own note").Build()).
		Build()
	runCtx := newFlowRunContext(t, sess, 0)
	runCtx.Branch = "Research.Worker1"

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)
	collect(t, ch)

	require.Len(t, llm.requests, 1)
	var texts []string
	for _, c := range llm.requests[0].Contents[1:] {
		texts = append(texts, c.Text())
	}

	// The unbranched user turn, the ancestor's plan, and the worker's own
	// history are visible. The sibling worker's output is not.
	assert.Equal(t, []string{"go", "plan", "own note"}, texts)
}

func TestFlowToolCallLoop(t *testing.T) {
	lookup := tool.NewFunctionTool(
		"lookup",
		"Look up a fact.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return map[string]any{"answer": 42, "query": args["query"]}, nil
		},
	)

	llm := &scriptedModel{turns: []*model.Response{
		toolTurn("fc1", "lookup", `{"query":"meaning"}`),
		textTurn("The answer is 42."),
	}}
	ag := &testFlowAgent{
		name:            "Researcher",
		llm:             llm,
		tools:           map[string]tool.Tool{"lookup": lookup},
		functionCalling: true,
		outputKey:       "answer",
	}

	sess := testutil.NewSessionBuilder("s1").
		Event(testutil.NewEventBuilder().Author("user").UserText("go").Build()).
		Build()
	runCtx := newFlowRunContext(t, sess, 0)

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 3)

	calls := events[0].GetFunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "lookup", calls[0].Name)
	assert.False(t, events[0].IsFinalResponse())

	responses := events[1].GetFunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "fc1", responses[0].ID)
	assert.Empty(t, responses[0].Error)

	final := events[2]
	assert.True(t, final.IsFinalResponse())
	assert.Equal(t, "The answer is 42.", final.Actions.StateDelta["answer"])

	// Tool definitions were advertised on both model turns.
	require.Len(t, llm.requests, 2)
	require.Len(t, llm.requests[0].Tools, 1)
	assert.Equal(t, "lookup", llm.requests[0].Tools[0].Function.Name)
}

func TestFlowToolErrorSurfacesInResponse(t *testing.T) {
	failing := tool.NewFunctionTool(
		"lookup", "Always fails.",
		map[string]any{"type": "object"},
		func(*core.ToolContext, map[string]any) (any, error) {
			return nil, errors.New("upstream timeout")
		},
	)

	llm := &scriptedModel{turns: []*model.Response{
		toolTurn("fc1", "lookup", `{}`),
		textTurn("I could not verify this."),
	}}
	ag := &testFlowAgent{
		name:            "Researcher",
		llm:             llm,
		tools:           map[string]tool.Tool{"lookup": failing},
		functionCalling: true,
	}

	sess := testutil.NewSessionBuilder("s1").
		Event(testutil.NewEventBuilder().Author("user").UserText("go").Build()).
		Build()
	runCtx := newFlowRunContext(t, sess, 0)

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 3)

	responses := events[1].GetFunctionResponses()
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Error, "upstream timeout")
	assert.True(t, events[2].IsFinalResponse())
}

func TestFlowModelErrorEmitsErrorEvent(t *testing.T) {
	llm := &scriptedModel{turns: []*model.Response{nil}}
	ag := &testFlowAgent{name: "Checker", llm: llm, outputKey: "verdict"}

	sess := testutil.NewSessionBuilder("s1").
		Event(testutil.NewEventBuilder().Author("user").UserText("go").Build()).
		Build()
	runCtx := newFlowRunContext(t, sess, 0)

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].ErrorMessage)
	assert.Contains(t, *events[0].ErrorMessage, "model generation failed")
	assert.Nil(t, events[0].Actions.StateDelta["verdict"])
}

func TestFlowModelErrorConsumesResumeToken(t *testing.T) {
	llm := &scriptedModel{turns: []*model.Response{nil}}
	ag := &testFlowAgent{name: "Checker", llm: llm}

	sess := testutil.NewSessionBuilder("s1").
		Event(testutil.NewEventBuilder().Author("user").UserText("go").Build()).
		Build()

	store := session.NewInMemoryStore()
	_, err := store.Create(sess.ID)
	require.NoError(t, err)
	for _, ev := range sess.Events {
		require.NoError(t, store.AppendEvent(sess.ID, ev))
	}

	// Exactly one token, as if the runner had persisted exactly one event.
	resume := make(chan struct{}, 1)
	resume <- struct{}{}

	runCtx := core.NewRunContext(
		context.Background(), sess.ID, "run-1",
		core.AgentInfo{Name: "Checker", Type: "model"},
		core.NewTextContent("user", "go"),
		0,
		nil, resume, sess, store, nil, nil, nil,
	)

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].ErrorMessage)

	// The error event's token must be claimed by the flow, not left for a
	// later turn to consume before its own event is persisted.
	assert.Empty(t, resume)
}

func TestFlowEnforcesModelCallBudget(t *testing.T) {
	lookup := tool.NewFunctionTool(
		"lookup", "Look up a fact.",
		map[string]any{"type": "object"},
		func(*core.ToolContext, map[string]any) (any, error) {
			return "result", nil
		},
	)

	// The second turn would answer, but the budget only allows one call.
	llm := &scriptedModel{turns: []*model.Response{
		toolTurn("fc1", "lookup", `{}`),
		textTurn("never reached"),
	}}
	ag := &testFlowAgent{
		name:            "Researcher",
		llm:             llm,
		tools:           map[string]tool.Tool{"lookup": lookup},
		functionCalling: true,
	}

	sess := testutil.NewSessionBuilder("s1").
		Event(testutil.NewEventBuilder().Author("user").UserText("go").Build()).
		Build()
	runCtx := newFlowRunContext(t, sess, 1)

	ch, err := NewSingleAgentFlow(ag).Execute(runCtx)
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 3)

	last := events[2]
	require.NotNil(t, last.ErrorMessage)
	assert.Contains(t, *last.ErrorMessage, "exceeded max model calls")

	// Only the first model turn was issued.
	assert.Len(t, llm.requests, 1)
}
