package synthesis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracity-ai/veracity/artifact"
	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/logging"
	"github.com/veracity-ai/veracity/session"
)

func sampleAdjudicated() AdjudicatedReport {
	return AdjudicatedReport{
		Verdict:           VerdictMixed,
		Factuality:        0.5,
		HeadlineSummaryMD: "True — the launch date is confirmed.\nFalse — the revenue figure is wrong.",
		WhatWasTrue: []SectionItem{
			{ClaimID: "C1", ClaimText: "The product launched in 2023", Explanation: "Confirmed by the press release [1]."},
		},
		WhatWasFalse: []SectionItem{
			{ClaimID: "C2", ClaimText: "Revenue doubled", Explanation: "Filings show 12% growth [2].", Material: true},
		},
		WhatCouldNotBeVerified: []SectionItem{
			{ClaimID: "C3", ClaimText: "The CEO still serves", Explanation: "No current evidence found."},
		},
		References: []Reference{
			{IsSupportive: true, Citation: "launched in 2023", URL: "https://example.com/pr"},
			{IsSupportive: false, Citation: "revenue grew 12%", URL: "https://example.com/10k"},
		},
	}
}

func TestTransformReport(t *testing.T) {
	report := TransformReport(sampleAdjudicated())

	assert.InDelta(t, 0.5, report.Factuality, 1e-9)
	assert.Equal(t, VerdictMixed, report.OverallLabel)
	assert.Equal(t, "Overall verdict: mixed with confidence 0.50", report.ScoreJustification)
	assert.Contains(t, report.ReasonSummary, "launch date is confirmed")
	assert.Len(t, report.References, 2)

	assert.Contains(t, report.Reason, "## True")
	assert.Contains(t, report.Reason, "- The product launched in 2023")
	assert.Contains(t, report.Reason, "Confirmed by the press release [1].")
	assert.Contains(t, report.Reason, "## False")
	assert.Contains(t, report.Reason, "## Unverified")
}

func TestRenderReasonOmitsEmptySections(t *testing.T) {
	adjudicated := AdjudicatedReport{
		Verdict: VerdictMostlyTrue,
		WhatWasTrue: []SectionItem{
			{ClaimID: "C1", ClaimText: "All good", Explanation: "Supported [1]."},
		},
	}

	reason := renderReason(adjudicated)

	assert.Contains(t, reason, "## True")
	assert.NotContains(t, reason, "## False")
	assert.NotContains(t, reason, "## Unverified")
}

func TestOverallLabelMaterialityGate(t *testing.T) {
	tests := []struct {
		name        string
		verdict     string
		trueItems   int
		falseItems  []SectionItem
		want        string
	}{
		{
			name:       "material false keeps verdict",
			verdict:    VerdictMostlyFalse,
			falseItems: []SectionItem{{ClaimID: "C1", Material: true}},
			want:       VerdictMostlyFalse,
		},
		{
			name:       "immaterial false with true claims reads mostly true",
			verdict:    VerdictMixed,
			trueItems:  2,
			falseItems: []SectionItem{{ClaimID: "C1", Material: false}},
			want:       VerdictMostlyTrue,
		},
		{
			name:       "immaterial false without true claims reads unverified",
			verdict:    VerdictMostlyFalse,
			falseItems: []SectionItem{{ClaimID: "C1", Material: false}},
			want:       VerdictUnverified,
		},
		{
			name:    "no false items keeps verdict",
			verdict: VerdictMostlyTrue,
			want:    VerdictMostlyTrue,
		},
		{
			name:       "mostly true verdict untouched by immaterial false",
			verdict:    VerdictMostlyTrue,
			trueItems:  3,
			falseItems: []SectionItem{{ClaimID: "C1", Material: false}},
			want:       VerdictMostlyTrue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adjudicated := AdjudicatedReport{
				Verdict:      tt.verdict,
				WhatWasFalse: tt.falseItems,
			}
			for i := 0; i < tt.trueItems; i++ {
				adjudicated.WhatWasTrue = append(adjudicated.WhatWasTrue, SectionItem{})
			}

			assert.Equal(t, tt.want, overallLabel(adjudicated))
		})
	}
}

// --- ReportAgent ---

type reportHarness struct {
	runCtx    *core.RunContext
	emit      chan core.Event
	sessions  *session.InMemoryStore
	artifacts *artifact.InMemoryStore
}

func newReportHarness(t *testing.T, adjudicated any) *reportHarness {
	t.Helper()

	sessions := session.NewInMemoryStore()
	sess, err := sessions.Create("s1")
	require.NoError(t, err)

	if adjudicated != nil {
		require.NoError(t, sessions.ApplyDelta("s1", map[string]any{StateKeyAdjudicated: adjudicated}))
	}

	emit := make(chan core.Event, 10)
	resume := make(chan struct{}, 10)
	resume <- struct{}{}

	artifacts := artifact.NewInMemoryStore()

	runCtx := core.NewRunContext(
		context.Background(), "s1", "run-1",
		core.AgentInfo{Name: "ReportTransformation", Type: "transform"},
		core.Content{}, 0, emit, resume, sess, sessions, artifacts, nil,
		logging.NoOpLogger{},
	)

	return &reportHarness{runCtx: runCtx, emit: emit, sessions: sessions, artifacts: artifacts}
}

func TestReportAgentPublishesReport(t *testing.T) {
	data, err := json.Marshal(sampleAdjudicated())
	require.NoError(t, err)

	h := newReportHarness(t, string(data))

	a := NewReportAgent()
	require.NoError(t, a.Run(h.runCtx))

	ev := <-h.emit
	assert.True(t, ev.IsEscalation())
	require.NotNil(t, ev.Content)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(ev.Content.Text()), &report))
	assert.Equal(t, VerdictMixed, report.OverallLabel)

	// The final report is staged in the state delta carried by the event.
	raw, ok := ev.Actions.StateDelta[StateKeyReport]
	require.True(t, ok)
	assert.Contains(t, raw.(string), "overall_label")

	// And saved as an artifact.
	stored, err := h.artifacts.Get("s1", ReportArtifactID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored)
	assert.Equal(t, map[string]int{ReportArtifactID: 1}, ev.Actions.ArtifactDelta)
}

func TestReportAgentToleratesCodeFences(t *testing.T) {
	data, err := json.Marshal(sampleAdjudicated())
	require.NoError(t, err)

	h := newReportHarness(t, "```json\n"+string(data)+"\n```")

	a := NewReportAgent()
	require.NoError(t, a.Run(h.runCtx))

	ev := <-h.emit
	assert.True(t, ev.IsEscalation())
}

func TestReportAgentMissingAdjudication(t *testing.T) {
	h := newReportHarness(t, nil)

	a := NewReportAgent()
	require.NoError(t, a.Run(h.runCtx))

	// No event is emitted and nothing is stored.
	select {
	case ev := <-h.emit:
		t.Fatalf("unexpected event %s", ev.ID)
	default:
	}

	stored, _ := h.artifacts.Get("s1", ReportArtifactID)
	assert.Empty(t, stored)
}

func TestReportAgentUndecodableAdjudication(t *testing.T) {
	h := newReportHarness(t, "the model rambled instead of emitting JSON")

	a := NewReportAgent()
	require.NoError(t, a.Run(h.runCtx))

	select {
	case ev := <-h.emit:
		t.Fatalf("unexpected event %s", ev.ID)
	default:
	}
}
