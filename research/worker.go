package research

import (
	"fmt"

	"github.com/veracity-ai/veracity/agent"
	"github.com/veracity-ai/veracity/analysis"
	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/embedding"
	"github.com/veracity-ai/veracity/model"
	"github.com/veracity-ai/veracity/tool"
	"github.com/veracity-ai/veracity/web"
)

// WorkerDeps bundles everything a research worker needs. The orchestrator
// passes one WorkerDeps to every worker; per-worker call budgets and dedup
// trackers are created fresh inside NewQuestionWorker.
type WorkerDeps struct {
	LLM      model.Model
	Search   web.SearchClient
	Scrape   web.ScrapeClient
	Embedder embedding.Embedder

	// MaxSearchCalls and MaxScrapeCalls bound each worker's tool usage.
	// Zero means unlimited.
	MaxSearchCalls int
	MaxScrapeCalls int

	// DedupThreshold is the cosine similarity at which two search queries
	// count as duplicates.
	DedupThreshold float64
}

const workerInstruction = `You are a research agent investigating exactly one question. Answer it using web evidence, not your own knowledge.

Question (id %s):
%s

Approach:
1. Call web_search with a focused query. Review titles and snippets.
2. If snippets already answer the question, stop searching.
3. Otherwise call scrape_website on the most authoritative result pages. Prefer official sources and primary documentation. Avoid scraping near-identical pages.
4. You may call load_memory to reuse findings from earlier in this investigation and save_to_memory to store key evidence for later questions.
5. Your search and scrape budgets are limited. A tool error with code BUDGET_EXCEEDED or DUPLICATE_QUERY means that call was rejected; move on with the evidence you have instead of retrying.

When done, respond with JSON only:
{
  "question_id": "%s",
  "question": %q,
  "answer": "direct, specific answer with the key facts and dates",
  "confidence": 0.0,
  "sources": [{"url": "...", "citation": "verbatim quote or key datum from that page"}]
}

confidence is 0.0-1.0 based on source quality and consistency. Only cite URLs you actually saw in tool results. If the evidence is insufficient, say so in the answer and use a low confidence.`

// NewQuestionWorker builds the bounded single-question research agent for q.
// Its final answer is committed to session state under AnswerKey(q.ID).
func NewQuestionWorker(q analysis.Question, deps WorkerDeps) *agent.ModelAgent {
	searchLimiter := core.NewCallLimiter("search", deps.MaxSearchCalls)
	scrapeLimiter := core.NewCallLimiter("scrape", deps.MaxScrapeCalls)
	deduper := embedding.NewDeduper(deps.Embedder, deps.DedupThreshold)

	instruction := fmt.Sprintf(workerInstruction, q.ID, q.Question, q.ID, q.Question)

	a := agent.NewModelAgent(fmt.Sprintf("Research_%s", q.ID), deps.LLM, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(instruction)
		o.OutputKey = AnswerKey(q.ID)
	})
	a.SetDescription(fmt.Sprintf("Researches question %s (%s priority)", q.ID, q.Priority))

	a.RegisterTools(
		web.NewSearchTool(deps.Search, searchLimiter, deduper),
		web.NewScrapeTool(deps.Scrape, scrapeLimiter),
		tool.NewLoadMemoryTool(),
		tool.NewSaveToMemoryTool(),
	)

	return a
}
