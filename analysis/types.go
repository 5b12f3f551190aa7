// Package analysis holds the first pipeline stage: structuring free-form text
// into atomic claims and deriving prioritized research questions from them.
package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/veracity-ai/veracity/internal/util"
)

// Priority orders research questions. Lower values run first.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// UnmarshalJSON accepts numeric priorities (1..3) as well as the string forms
// "high", "medium", "low" and numeric strings. Models produce all of these.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		return p.fromInt(int(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "high":
			*p = PriorityHigh
			return nil
		case "medium":
			*p = PriorityMedium
			return nil
		case "low":
			*p = PriorityLow
			return nil
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return p.fromInt(n)
		}
		return fmt.Errorf("invalid priority %q", v)
	default:
		return fmt.Errorf("invalid priority type %T", raw)
	}
}

func (p *Priority) fromInt(n int) error {
	if n < int(PriorityHigh) || n > int(PriorityLow) {
		return fmt.Errorf("priority %d out of range", n)
	}

	*p = Priority(n)

	return nil
}

// MarshalJSON emits the numeric form.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}

// Claim is one atomic, independently verifiable statement extracted from the
// input text.
type Claim struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Question is one research question targeting a potential gap in a claim.
type Question struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	ClaimID      string   `json:"claim_id,omitempty"`
	QuestionType string   `json:"question_type,omitempty"`
	Priority     Priority `json:"priority"`
}

type claimsEnvelope struct {
	Claims []Claim `json:"claims"`
}

type questionsEnvelope struct {
	Questions []Question `json:"questions"`
}

// DecodeClaims parses model output into claims. Both a bare JSON array and a
// {"claims": [...]} envelope are accepted, with or without code fences.
func DecodeClaims(raw string) ([]Claim, error) {
	var env claimsEnvelope
	if err := util.DecodeJSON(raw, &env); err == nil && env.Claims != nil {
		return env.Claims, nil
	}

	var claims []Claim
	if err := util.DecodeJSON(raw, &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	return claims, nil
}

// DecodeQuestions parses model output into questions, accepting the same
// envelope variants as DecodeClaims. Questions without an id get a generated
// sequential one so output keys stay well-formed.
func DecodeQuestions(raw string) ([]Question, error) {
	var questions []Question

	var env questionsEnvelope
	if err := util.DecodeJSON(raw, &env); err == nil && env.Questions != nil {
		questions = env.Questions
	} else if err := util.DecodeJSON(raw, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = fmt.Sprintf("Q%d", i+1)
		}
		if questions[i].Priority == 0 {
			questions[i].Priority = PriorityMedium
		}
	}

	return questions, nil
}
