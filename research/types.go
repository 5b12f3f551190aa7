// Package research implements the fan-out/fan-in middle stage of the
// pipeline: one bounded research worker per gap question, scheduled in
// priority-ordered batches, with answers gathered back into a single ordered
// aggregate for the adjudicator.
package research

import (
	"fmt"

	"github.com/veracity-ai/veracity/internal/util"
)

// StateKeyAnswers is the session state key holding the aggregated answers JSON.
const StateKeyAnswers = "research_answers"

// Source is one cited piece of evidence backing an answer.
type Source struct {
	URL      string `json:"url"`
	Citation string `json:"citation,omitempty"`
}

// Answer is one research worker's finding for a single question.
type Answer struct {
	QuestionID string   `json:"question_id"`
	Question   string   `json:"question,omitempty"`
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence,omitempty"`
	Sources    []Source `json:"sources,omitempty"`
}

// AnswerKey returns the session state key a worker publishes its answer under.
func AnswerKey(questionID string) string {
	return fmt.Sprintf("research_answer_%s", questionID)
}

// DecodeAnswer parses a worker's raw model output into an Answer, tolerating
// code fences and surrounding prose.
func DecodeAnswer(raw string) (Answer, error) {
	var a Answer
	if err := util.DecodeJSON(raw, &a); err != nil {
		return Answer{}, fmt.Errorf("decode answer: %w", err)
	}

	return a, nil
}
