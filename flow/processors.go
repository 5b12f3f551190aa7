package flow

import (
	"fmt"
	"strings"

	"github.com/veracity-ai/veracity/core"
	internalutil "github.com/veracity-ai/veracity/internal/util"
	"github.com/veracity-ai/veracity/model"
)

// InstructionsProcessor resolves the stage instructions and renders them
// against session state, so prompts can reference earlier stage outputs
// like {{.claims}} or {{.evidence}}.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest stores the rendered instructions on the request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	if runCtx.Session != nil && runCtx.Session.State != nil {
		var tplErr error
		req.Instructions, tplErr = internalutil.RenderTemplate(instructions, runCtx.Session.State)
		if tplErr != nil {
			return fmt.Errorf("failed to render template: %w", tplErr)
		}
	} else {
		req.Instructions = instructions
	}

	return nil
}

// ContentsProcessor assembles the message list: the rendered instructions
// as a system message, then the trailing window of conversation history.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest fills in req.Contents. It must run after the
// instructions processor.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	contents := []core.Content{{
		Role:  "system",
		Parts: []core.Part{core.TextPart{Text: req.Instructions}},
	}}

	if runCtx.Session != nil {
		events := runCtx.Session.GetConversationHistory()
		events = filterByBranch(events, runCtx.Branch)
		if len(events) > agent.MaxHistoryMessages() {
			events = events[len(events)-agent.MaxHistoryMessages():]
		}

		for _, ev := range events {
			if ev.Content != nil && len(ev.Content.Parts) > 0 {
				contents = append(contents, *ev.Content)
			}
		}
	}

	req.Contents = contents
	return nil
}

// filterByBranch keeps events visible to the given branch: unbranched
// events and events on the branch itself or one of its ancestors. Events
// from sibling branches, such as parallel research workers, are excluded
// so each worker's prompt stays self-contained.
func filterByBranch(events []core.Event, branch string) []core.Event {
	if branch == "" {
		return events
	}

	filtered := make([]core.Event, 0, len(events))
	for _, ev := range events {
		if ev.Branch == nil || *ev.Branch == "" || strings.HasPrefix(branch, *ev.Branch) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}
