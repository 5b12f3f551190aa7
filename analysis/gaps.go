package analysis

import (
	"fmt"

	"github.com/veracity-ai/veracity/agent"
	"github.com/veracity-ai/veracity/model"
)

// StateKeyQuestions is the session state key holding the gap questions JSON.
const StateKeyQuestions = "gap_questions"

const gapIdentificationInstruction = `Analyze the structured claims below and generate critical research questions that expose what could be wrong, outdated or missing. Be highly skeptical. Distrust parametric knowledge.

Focus on:
- TEMPORAL data: "When was this published?", "Is this person still in this role?"
- QUANTIFIABLE data: "What is the exact number?", "What is the primary source?"
- AMBIGUOUS terms: "What does 'significant growth' mean precisely?"
- IMPLICIT assumptions: "Does this assume X is true? Verify X first."

Structured claims:
{{.structured_claims}}

Respond with JSON only, no prose:
{
  "questions": [
    {"id": "Q1", "question": "...", "claim_id": "C1", "question_type": "temporal", "priority": 1}
  ]
}

Rules:
- Number ids sequentially: Q1, Q2, Q3, ...
- question_type is one of: temporal, quantifiable, ambiguous, implicit.
- priority is 1 (high), 2 (medium) or 3 (low). High priority questions decide whether a claim stands or falls.
- Generate at most %d questions total, covering the most error-prone claims first.
- Every question must be answerable by web research.`

// NewGapIdentificationAgent builds the stage that derives prioritized research
// questions from the structured claims, published under StateKeyQuestions.
// maxQuestions caps the number of questions requested from the model.
func NewGapIdentificationAgent(llm model.Model, maxQuestions int) *agent.ModelAgent {
	if maxQuestions <= 0 {
		maxQuestions = 12
	}

	a := agent.NewModelAgent("GapIdentification", llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(fmt.Sprintf(gapIdentificationInstruction, maxQuestions))
		o.EnableFunctionCalling = false
		o.OutputKey = StateKeyQuestions
	})
	a.SetDescription("Identifies critical gaps and potential weaknesses in claims")

	return a
}
