// Package tool implements function calling for pipeline stages. Research
// workers carry search, scrape and memory tools; each tool declares a JSON
// schema, validates its arguments against it, and reports failures with
// structured error codes the model can react to.
package tool

import (
	"fmt"

	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/internal/util"
)

// Tool is a capability an agent can expose to its model.
//
// Every call receives a ToolContext, which carries session state, the
// shared evidence pool and artifact storage for the current run.
//
// Implementations should keep names snake_case, describe themselves well
// enough for the model to pick the right tool, and be safe for concurrent
// use since parallel workers may share a tool instance.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns what the tool does, phrased for the model.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]interface{}

	// Call executes the tool with already-validated arguments.
	Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error)
}

// ValidationError reports a schema violation in tool arguments.
type ValidationError = util.ValidationError

// ToolError is the structured error surfaced to the model when a tool
// fails. Code distinguishes validation problems from execution failures
// and domain conditions like an exhausted search budget.
type ToolError struct {
	Tool    string      `json:"tool"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given code.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
