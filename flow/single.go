package flow

// SingleAgentFlow is the flow every pipeline stage runs on. It is a
// BaseFlow preloaded with the instruction and content processors, in
// that order, since content assembly reads the rendered instructions.
type SingleAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow creates a flow with the default processors wired.
func NewSingleAgentFlow(agent FlowAgent) *SingleAgentFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())

	return &SingleAgentFlow{BaseFlow: baseFlow}
}
