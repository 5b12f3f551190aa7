package agent

import (
	"fmt"

	"github.com/veracity-ai/veracity/core"
)

// SequentialAgent runs child agents one after another over the same run
// context. Because every child sees the session state its predecessors
// committed, this is the backbone of the fact-check pipeline: extraction,
// research, adjudication and report writing each read what the previous
// stage wrote.
type SequentialAgent struct {
	BaseAgent
	children []core.Agent
}

// NewSequentialAgent creates a coordinator that executes children in the
// order given.
func NewSequentialAgent(name string, children ...core.Agent) *SequentialAgent {
	return &SequentialAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
	}
}

// Run implements core.Agent. The first child error aborts the sequence.
func (s *SequentialAgent) Run(runCtx *core.RunContext) error {
	for _, child := range s.children {
		if err := child.Run(runCtx); err != nil {
			return fmt.Errorf("sequential execution failed at agent %s: %w", child.Name(), err)
		}
	}

	return nil
}
