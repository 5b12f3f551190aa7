package synthesis

import (
	"encoding/json"
	"fmt"

	"github.com/veracity-ai/veracity/agent"
	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/internal/util"
)

// ReportAgent is the last pipeline stage. It decodes the adjudicated report
// from session state, applies the pure transformation, publishes the final
// report under StateKeyReport, saves it as an artifact, and escalates to end
// the run with the report JSON as the final response.
//
// A missing or undecodable adjudicated report is logged and the run ends
// without a report rather than failing.
type ReportAgent struct {
	agent.BaseAgent
}

// NewReportAgent creates the report transformation stage.
func NewReportAgent() *ReportAgent {
	a := &ReportAgent{BaseAgent: agent.NewBaseAgent("ReportTransformation")}
	a.SetDescription("Transforms the adjudicated report into the client-facing format")

	return a
}

// Run implements core.Agent.
func (a *ReportAgent) Run(runCtx *core.RunContext) error {
	raw, ok := runCtx.GetState(StateKeyAdjudicated)
	if !ok {
		runCtx.LogError("report.adjudicated.missing", "key", StateKeyAdjudicated)
		return nil
	}

	text, _ := raw.(string)

	var adjudicated AdjudicatedReport
	if err := util.DecodeJSON(text, &adjudicated); err != nil {
		runCtx.LogError("report.adjudicated.undecodable", "error", err)
		return nil
	}

	report := TransformReport(adjudicated)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode final report: %w", err)
	}

	runCtx.SetState(StateKeyReport, string(data))

	if err := runCtx.SaveArtifact(ReportArtifactID, data); err != nil {
		runCtx.LogWarn("report.artifact.save_failed", "error", err)
	}

	ev := core.NewMessageEvent(a.Name(), string(data))
	ev.RunID = runCtx.RunID
	escalate := true
	ev.Actions.Escalate = &escalate

	if err := runCtx.EmitEvent(ev); err != nil {
		return fmt.Errorf("emit final report: %w", err)
	}

	return runCtx.WaitForResume()
}
