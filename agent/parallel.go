package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veracity-ai/veracity/core"
)

// ParallelAgent fans child agents out concurrently. Each child gets a
// cloned run context with its own branch path, so pending state deltas
// and artifacts stay isolated while the shared session remains readable.
// The research stage uses this to run a batch of workers at once.
type ParallelAgent struct {
	BaseAgent
	children []core.Agent
	timeout  time.Duration // 0 means no deadline
}

// NewParallelAgent creates a coordinator that runs children concurrently.
// A non-zero timeout bounds the whole batch.
func NewParallelAgent(name string, timeout time.Duration, children ...core.Agent) *ParallelAgent {
	return &ParallelAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
		timeout:   timeout,
	}
}

// branchCtxFor clones the parent context and assigns the child a branch
// path of the form "Parent.Child". Nested parallel agents build up
// hierarchical paths.
func (p *ParallelAgent) branchCtxFor(ctx context.Context, runCtx *core.RunContext, subAgent core.Agent) *core.RunContext {
	clonedCtx := runCtx.Clone()
	clonedCtx.Context = ctx

	branchSuffix := fmt.Sprintf("%s.%s", p.Name(), subAgent.Name())
	clonedCtx.Branch = buildBranchPath(runCtx.Branch, branchSuffix)

	return clonedCtx
}

// Run implements core.Agent. All children run to completion even when a
// sibling fails; the first error collected is returned afterwards.
func (p *ParallelAgent) Run(runCtx *core.RunContext) error {
	ctx := runCtx.Context
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(p.children))

	for _, child := range p.children {
		wg.Add(1)
		go func(c core.Agent) {
			defer wg.Done()

			branchCtx := p.branchCtxFor(ctx, runCtx, c)

			if err := c.Run(branchCtx); err != nil {
				errCh <- fmt.Errorf("parallel execution failed for agent %s: %w", c.Name(), err)
			}
		}(child)
	}

	wg.Wait()
	close(errCh)

	if len(errCh) > 0 {
		return <-errCh
	}

	return nil
}
