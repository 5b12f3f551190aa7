package research

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/veracity-ai/veracity/agent"
	"github.com/veracity-ai/veracity/analysis"
	"github.com/veracity-ai/veracity/core"
)

// TierOrder returns the priority tiers in execution order. High-priority
// questions always run first so a bounded run completes the most important
// research before anything else.
func TierOrder() []analysis.Priority {
	return []analysis.Priority{analysis.PriorityHigh, analysis.PriorityMedium, analysis.PriorityLow}
}

// PartitionByTier groups questions by priority, preserving input order within
// each tier. Out-of-range priorities land in the low tier.
func PartitionByTier(questions []analysis.Question) map[analysis.Priority][]analysis.Question {
	tiers := make(map[analysis.Priority][]analysis.Question)
	for _, q := range questions {
		p := q.Priority
		if p != analysis.PriorityHigh && p != analysis.PriorityMedium {
			p = analysis.PriorityLow
		}
		tiers[p] = append(tiers[p], q)
	}

	return tiers
}

// SplitBatches splits questions into ceil(len/size) batches of at most size.
func SplitBatches(questions []analysis.Question, size int) [][]analysis.Question {
	if size < 1 {
		size = 1
	}

	var batches [][]analysis.Question
	for start := 0; start < len(questions); start += size {
		end := start + size
		if end > len(questions) {
			end = len(questions)
		}
		batches = append(batches, questions[start:end])
	}

	return batches
}

// OrchestratorOptions tunes the research fan-out.
type OrchestratorOptions struct {
	// BatchSize is the number of workers run concurrently per batch.
	BatchSize int
	// BatchTimeout bounds one batch's parallel execution.
	BatchTimeout time.Duration
}

// Orchestrator is the research stage agent. It reads the gap questions from
// session state, runs one bounded worker per question in priority-ordered
// batches, then gathers the workers' answers into StateKeyAnswers, ordered by
// the original question order.
//
// Failure semantics are deliberately loose: a failed batch or a missing or
// undecodable worker answer is logged and skipped, so partial research still
// produces an aggregate for the adjudicator. Unanswered questions simply do
// not appear in it.
type Orchestrator struct {
	agent.BaseAgent
	deps         WorkerDeps
	batchSize    int
	batchTimeout time.Duration
}

// NewOrchestrator creates the research stage with the given worker
// dependencies.
func NewOrchestrator(deps WorkerDeps, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{
		BatchSize:    5,
		BatchTimeout: 5 * time.Minute,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	o := &Orchestrator{
		BaseAgent:    agent.NewBaseAgent("ResearchOrchestrator"),
		deps:         deps,
		batchSize:    opts.BatchSize,
		batchTimeout: opts.BatchTimeout,
	}
	o.SetDescription("Runs prioritized, batched parallel research over the gap questions")

	return o
}

// Run implements core.Agent.
func (o *Orchestrator) Run(runCtx *core.RunContext) error {
	questions := o.loadQuestions(runCtx)

	if len(questions) > 0 {
		o.runTiers(runCtx, questions)

		// Worker answers were persisted by the runner while batches ran;
		// reload the session so the gather step sees them.
		if err := runCtx.RefreshSession(); err != nil {
			runCtx.LogWarn("research.session.refresh_failed", "error", err)
		}
	}

	answers := o.gather(runCtx, questions)

	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode research answers: %w", err)
	}

	runCtx.SetState(StateKeyAnswers, string(data))

	ev := core.NewMessageEvent(o.Name(),
		fmt.Sprintf("Research complete: %d of %d questions answered.", len(answers), len(questions)))
	ev.RunID = runCtx.RunID
	if runCtx.Branch != "" {
		ev.Branch = &runCtx.Branch
	}

	if err := runCtx.EmitEvent(ev); err != nil {
		return fmt.Errorf("emit research summary: %w", err)
	}

	return runCtx.WaitForResume()
}

func (o *Orchestrator) loadQuestions(runCtx *core.RunContext) []analysis.Question {
	raw, ok := runCtx.GetState(analysis.StateKeyQuestions)
	if !ok {
		runCtx.LogWarn("research.questions.missing", "key", analysis.StateKeyQuestions)
		return nil
	}

	text, ok := raw.(string)
	if !ok {
		runCtx.LogWarn("research.questions.not_text", "key", analysis.StateKeyQuestions)
		return nil
	}

	questions, err := analysis.DecodeQuestions(text)
	if err != nil {
		runCtx.LogWarn("research.questions.undecodable", "error", err)
		return nil
	}

	return questions
}

func (o *Orchestrator) runTiers(runCtx *core.RunContext, questions []analysis.Question) {
	tiers := PartitionByTier(questions)

	for _, priority := range TierOrder() {
		tierQuestions := tiers[priority]
		if len(tierQuestions) == 0 {
			continue
		}

		batches := SplitBatches(tierQuestions, o.batchSize)

		runCtx.LogInfo("research.tier.start",
			"priority", priority.String(),
			"questions", len(tierQuestions),
			"batches", len(batches))

		for i, batch := range batches {
			workers := make([]core.Agent, 0, len(batch))
			for _, q := range batch {
				workers = append(workers, NewQuestionWorker(q, o.deps))
			}

			name := fmt.Sprintf("%s_%s_batch%d", o.Name(), priority, i+1)
			parallel := agent.NewParallelAgent(name, o.batchTimeout, workers...)

			if err := parallel.Run(runCtx); err != nil {
				runCtx.LogWarn("research.batch.failed",
					"priority", priority.String(),
					"batch", i+1,
					"error", err)
			}
		}
	}
}

// gather collects worker answers in original question order. Missing and
// undecodable answers are logged and left out.
func (o *Orchestrator) gather(runCtx *core.RunContext, questions []analysis.Question) []Answer {
	answers := make([]Answer, 0, len(questions))

	for _, q := range questions {
		raw, ok := runCtx.GetState(AnswerKey(q.ID))
		if !ok {
			runCtx.LogWarn("research.answer.missing", "question", q.ID)
			continue
		}

		text, _ := raw.(string)
		answer, err := DecodeAnswer(text)
		if err != nil {
			runCtx.LogWarn("research.answer.undecodable", "question", q.ID, "error", err)
			continue
		}

		if answer.QuestionID == "" {
			answer.QuestionID = q.ID
		}
		if answer.Question == "" {
			answer.Question = q.Question
		}

		answers = append(answers, answer)
	}

	return answers
}
