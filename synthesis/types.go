// Package synthesis holds the final pipeline stage: adjudicating research
// evidence against the structured claims and shaping the result into the
// client-facing fact-check report.
package synthesis

// Session state keys produced by this stage.
const (
	StateKeyAdjudicated = "adjudicated_report"
	StateKeyReport      = "final_report"
)

// ReportArtifactID names the artifact holding the final report JSON.
const ReportArtifactID = "final_report.json"

// Overall verdict values produced by the adjudicator.
const (
	VerdictMostlyTrue  = "mostly_true"
	VerdictMostlyFalse = "mostly_false"
	VerdictMixed       = "mixed"
	VerdictUnverified  = "unverified"
)

// SectionItem is one claim placed in a verdict section of the adjudicated
// report. Material is only meaningful on false findings and marks whether the
// inaccuracy is serious enough to affect the overall judgment.
type SectionItem struct {
	ClaimID     string `json:"claim_id"`
	ClaimText   string `json:"claim_text"`
	Explanation string `json:"argumentative_explanation"`
	Material    bool   `json:"material,omitempty"`
}

// Reference is one entry of the deduplicated citation list, addressed by
// bracketed numbers inside the explanations.
type Reference struct {
	IsSupportive bool   `json:"is_supportive"`
	Citation     string `json:"citation"`
	URL          string `json:"url"`
}

// AdjudicatedReport is the adjudicator's structured output: every claim in
// exactly one section, plus the overall verdict and factuality score.
type AdjudicatedReport struct {
	Verdict                string        `json:"verdict"`
	Factuality             float64       `json:"factuality"`
	HeadlineSummaryMD      string        `json:"headline_summary_md"`
	WhatWasTrue            []SectionItem `json:"what_was_true"`
	WhatWasFalse           []SectionItem `json:"what_was_false"`
	WhatCouldNotBeVerified []SectionItem `json:"what_could_not_be_verified"`
	References             []Reference   `json:"references"`
}

// Report is the client-facing result of a fact-check run.
type Report struct {
	Factuality         float64     `json:"factuality"`
	OverallLabel       string      `json:"overall_label"`
	Reason             string      `json:"reason"`
	ReasonSummary      string      `json:"reason_summary"`
	ScoreJustification string      `json:"score_justification"`
	References         []Reference `json:"references"`
}
