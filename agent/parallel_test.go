package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/logging"
)

// testChildAgent is a lightweight concrete agent used for testing composite agents.
// It captures the run context passed to Run and optionally returns an error.
type testChildAgent struct {
	BaseAgent
	runFn       func(*core.RunContext) error
	receivedCtx *core.RunContext
}

func newTestChildAgent(name string, runFn func(*core.RunContext) error) *testChildAgent {
	if runFn == nil {
		runFn = func(*core.RunContext) error { return nil }
	}

	return &testChildAgent{BaseAgent: NewBaseAgent(name), runFn: runFn}
}

func (t *testChildAgent) Run(runCtx *core.RunContext) error {
	t.receivedCtx = runCtx
	return t.runFn(runCtx)
}

func TestNewParallelAgent(t *testing.T) {
	c1 := newTestChildAgent("Worker1", nil)
	c2 := newTestChildAgent("Worker2", nil)

	p := NewParallelAgent("Batch1", 0, c1, c2)
	assert.Equal(t, "Batch1", p.Name())
	assert.Len(t, p.children, 2)
	assert.Same(t, c1, p.children[0])
	assert.Same(t, c2, p.children[1])
}

func makeRunCtx(t *testing.T, agentName, agentType string) *core.RunContext {
	t.Helper()
	emit := make(chan core.Event, 10)
	resume := make(chan struct{}, 1)
	userContent := core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "verify this"}}}
	info := core.AgentInfo{Name: agentName, Type: agentType}
	return core.NewRunContext(context.Background(), "session-1", "run-1", info, userContent, 0, emit, resume, core.NewSession("session-1"), nil, nil, nil, logging.NoOpLogger{})
}

func TestParallelAgent_Run_Success(t *testing.T) {
	// Collect branches concurrently
	var mu sync.Mutex
	branches := map[string]string{}

	mkChild := func(name string) *testChildAgent {
		return newTestChildAgent(name, func(ctx *core.RunContext) error {
			mu.Lock()
			branches[name] = ctx.Branch
			mu.Unlock()
			return nil
		})
	}

	c1 := mkChild("Worker1")
	c2 := mkChild("Worker2")
	c3 := mkChild("Worker3")

	p := NewParallelAgent("Batch1", 0, c1, c2, c3)

	runCtx := makeRunCtx(t, "Batch1", "parallel")

	err := p.Run(runCtx)
	assert.NoError(t, err)

	// All children should have been executed with isolated cloned contexts.
	assert.Len(t, branches, 3)

	// Ensure each branch contains hierarchical naming pattern: ParentName.ChildName
	for _, child := range []*testChildAgent{c1, c2, c3} {
		assert.NotNil(t, child.receivedCtx)
		assert.Truef(t, strings.HasSuffix(child.receivedCtx.Branch, "ParallelAgent."+child.Name()), "branch %s has correct suffix", child.receivedCtx.Branch)
	}

	// Original run context branch should remain unchanged (empty)
	assert.Equal(t, "", runCtx.Branch)
}

func TestParallelAgent_TimeoutCancelsChildren(t *testing.T) {
	blocked := newTestChildAgent("Worker1", func(ctx *core.RunContext) error {
		<-ctx.Done()
		return ctx.Context.Err()
	})

	p := NewParallelAgent("Batch1", 50*time.Millisecond, blocked)
	runCtx := makeRunCtx(t, "Batch1", "parallel")

	err := p.Run(runCtx)
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParallelAgent_Run_ErrorAggregation(t *testing.T) {
	sentinel := errors.New("boom")

	c1 := newTestChildAgent("Worker1", func(_ *core.RunContext) error { return nil })
	c2 := newTestChildAgent("Worker2", func(_ *core.RunContext) error { return sentinel })
	c3 := newTestChildAgent("Worker3", func(_ *core.RunContext) error { return nil })

	p := NewParallelAgent("Batch1", 0, c1, c2, c3)
	runCtx := makeRunCtx(t, "Batch1", "parallel")

	err := p.Run(runCtx)
	assert.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	// Siblings still ran to completion
	assert.NotNil(t, c1.receivedCtx)
	assert.NotNil(t, c3.receivedCtx)
}

func TestParallelAgent_StateIsolation(t *testing.T) {
	c1 := newTestChildAgent("Worker1", func(ctx *core.RunContext) error {
		ctx.SetState("k1", "v1")
		return nil
	})
	c2 := newTestChildAgent("Worker2", func(ctx *core.RunContext) error {
		ctx.SetState("k2", "v2")
		return nil
	})

	p := NewParallelAgent("Batch1", 0, c1, c2)
	runCtx := makeRunCtx(t, "Batch1", "parallel")

	assert.NoError(t, p.Run(runCtx))

	// Children staged deltas in their own cloned contexts, not the parent's.
	assert.Empty(t, runCtx.StateDelta)
	assert.Equal(t, "v1", c1.receivedCtx.StateDelta["k1"])
	assert.Equal(t, "v2", c2.receivedCtx.StateDelta["k2"])
}
