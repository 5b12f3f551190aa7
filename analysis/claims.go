package analysis

import (
	"github.com/veracity-ai/veracity/agent"
	"github.com/veracity-ai/veracity/model"
)

// StateKeyClaims is the session state key holding the structured claims JSON.
const StateKeyClaims = "structured_claims"

const claimStructuringInstruction = `Transform the user's input text into discrete, atomic, verifiable claims.

Each claim must be:
- Specific and measurable
- Independently verifiable
- Clear and unambiguous
- Self-contained (no pronouns referring to other claims)

Respond with JSON only, no prose:
{
  "claims": [
    {"id": "C1", "text": "...", "category": "...", "confidence": 0.0}
  ]
}

Rules:
- Number ids sequentially: C1, C2, C3, ...
- category is a short label such as "temporal", "quantitative", "attribution" or "general".
- confidence is your 0.0-1.0 estimate that the claim faithfully represents the input text.
- Split compound statements into separate claims.
- Do not fact-check anything yet; only restructure the text.`

// NewClaimStructuringAgent builds the stage that turns free-form input text
// into atomic claims, published under StateKeyClaims.
func NewClaimStructuringAgent(llm model.Model) *agent.ModelAgent {
	a := agent.NewModelAgent("ClaimStructuring", llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(claimStructuringInstruction)
		o.EnableFunctionCalling = false
		o.OutputKey = StateKeyClaims
	})
	a.SetDescription("Transforms input text into structured, verifiable claims")

	return a
}
