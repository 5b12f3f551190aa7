package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/veracity-ai/veracity/core"
)

// BaseAgent bundles shared lifecycle (Start/Stop), hierarchy management and
// identity helpers. Embed it in concrete agent implementations and supply a
// Run method to satisfy the core.Agent interface. All exported methods are
// goroutine-safe unless otherwise documented.
type BaseAgent struct {
	name        string
	description string
	mu          sync.Mutex
	cancel      context.CancelFunc
	running     bool
	parent      core.Agent
	subAgents   []core.Agent
}

// NewBaseAgent constructs a BaseAgent with a default description.
// Override it with SetDescription where it matters.
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// Start transitions the agent to running state and derives a cancellable
// context that is cancelled when Stop is invoked. It is safe for concurrent
// calls but only the first successful invocation changes state; subsequent
// calls while running return an error.
func (b *BaseAgent) Start(runCtx *core.RunContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return errors.New("agent is already running")
	}

	_, cancel := context.WithCancel(runCtx.Context)
	b.cancel = cancel
	b.running = true

	return nil
}

// Stop cancels the agent's derived context and marks it as not running.
// It returns an error if the agent was not running.
func (b *BaseAgent) Stop(_ *core.RunContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return errors.New("agent is not running")
	}

	if b.cancel != nil {
		b.cancel()
	}
	b.running = false

	return nil
}

// Agent Hierarchy Management
//
// The following methods support building multi-agent pipelines where agents
// have parent-child relationships.

// SetSubAgents atomically replaces the child agent set, clearing any previous
// parent links then assigning this agent as the parent of each new child. It
// enforces a single-parent invariant for all managed children.
func (b *BaseAgent) SetSubAgents(children ...core.Agent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Detach previous children first so no stale parent links remain.
	for _, child := range b.subAgents {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(nil)
		}
	}
	b.subAgents = nil

	for _, child := range children {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			// The wrapper supplies the Run method BaseAgent lacks.
			setter.setParent(&agentWrapper{b})
		}
		b.subAgents = append(b.subAgents, child)
	}

	return nil
}

// setParent sets the internal parent reference (internal, called by SetSubAgents).
func (b *BaseAgent) setParent(p core.Agent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = p
}

// Parent returns the current parent agent or nil if this agent is root.
func (b *BaseAgent) Parent() core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// SubAgents returns a shallow copy of current child agents for safe iteration.
func (b *BaseAgent) SubAgents() []core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]core.Agent, len(b.subAgents))
	copy(result, b.subAgents)
	return result
}

// FindAgent performs a depth-first search over the subtree rooted at this
// agent (including itself) returning the first agent whose Name matches.
// Returns nil if no match is found.
func (b *BaseAgent) FindAgent(name string) core.Agent {
	if b.name == name {
		return &agentWrapper{b}
	}

	for _, child := range b.SubAgents() {
		if child.Name() == name {
			return child
		}
		if found := child.FindAgent(name); found != nil {
			return found
		}
	}
	return nil
}

// agentWrapper wraps BaseAgent to satisfy Agent for hierarchy references.
type agentWrapper struct{ *BaseAgent }

// Run executes the agent's behavior within the given context.
func (w *agentWrapper) Run(_ *core.RunContext) error {
	return fmt.Errorf("cannot execute BaseAgent directly - embed it in a concrete agent with Run implementation")
}
