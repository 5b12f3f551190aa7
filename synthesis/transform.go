package synthesis

import (
	"fmt"
	"strings"
)

// TransformReport reshapes an adjudicated report into the client-facing
// Report. It is a pure function; the model is not consulted again.
func TransformReport(adjudicated AdjudicatedReport) Report {
	return Report{
		Factuality:    adjudicated.Factuality,
		OverallLabel:  overallLabel(adjudicated),
		Reason:        renderReason(adjudicated),
		ReasonSummary: adjudicated.HeadlineSummaryMD,
		ScoreJustification: fmt.Sprintf("Overall verdict: %s with confidence %.2f",
			adjudicated.Verdict, adjudicated.Factuality),
		References: adjudicated.References,
	}
}

// overallLabel applies the materiality gate: false findings only pull the
// overall label down when at least one of them is material. A text whose only
// inaccuracies are peripheral reads as mostly true (or unverified), not false.
func overallLabel(adjudicated AdjudicatedReport) string {
	if len(adjudicated.WhatWasFalse) == 0 {
		return adjudicated.Verdict
	}

	for _, item := range adjudicated.WhatWasFalse {
		if item.Material {
			return adjudicated.Verdict
		}
	}

	switch adjudicated.Verdict {
	case VerdictMostlyFalse, VerdictMixed:
		if len(adjudicated.WhatWasTrue) > 0 {
			return VerdictMostlyTrue
		}
		return VerdictUnverified
	default:
		return adjudicated.Verdict
	}
}

// renderReason renders the markdown body with one section per non-empty
// verdict bucket.
func renderReason(adjudicated AdjudicatedReport) string {
	var sections []string

	appendSection := func(heading string, items []SectionItem) {
		if len(items) == 0 {
			return
		}

		sections = append(sections, heading)
		for _, item := range items {
			sections = append(sections, fmt.Sprintf("- %s", item.ClaimText))
			if item.Explanation != "" {
				sections = append(sections, fmt.Sprintf("  %s", item.Explanation))
			}
		}
		sections = append(sections, "")
	}

	appendSection("## True", adjudicated.WhatWasTrue)
	appendSection("## False", adjudicated.WhatWasFalse)
	appendSection("## Unverified", adjudicated.WhatCouldNotBeVerified)

	return strings.TrimSpace(strings.Join(sections, "\n"))
}
