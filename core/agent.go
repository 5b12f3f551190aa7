package core

// Agent defines the core interface that all pipeline stages implement.
//
// Agents are the primary processing units. They receive inputs through a
// RunContext, process them, and emit events to communicate results and state
// changes back to the Runner. The interface supports both leaf agents (a
// single model call, a pure transformation) and hierarchical compositions
// (sequential stages, parallel research fan-outs).
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided RunContext
//   - Manage their lifecycle through Start/Stop
type Agent interface {
	Name() string
	Start(runCtx *RunContext) error
	Stop(runCtx *RunContext) error
	Run(runCtx *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
	Description() string
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation
// (e.g. "orchestrator", "worker", "model").
type AgentInfo struct{ Name, Type string }
