package web

import (
	"fmt"

	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/embedding"
	"github.com/veracity-ai/veracity/tool"
)

// Tool error codes surfaced to the model as structured function results.
const (
	// CodeBudgetExceeded signals the worker spent its per-tool call budget.
	CodeBudgetExceeded = "BUDGET_EXCEEDED"
	// CodeDuplicateQuery signals a search query too similar to an earlier one.
	CodeDuplicateQuery = "DUPLICATE_QUERY"
)

const defaultSearchLimit = 5

// NewSearchTool wraps client as a function tool with a per-worker call budget
// and semantic duplicate suppression. Budget and dedup violations come back as
// structured tool errors so the model can adjust instead of the run aborting.
// A rejected duplicate does not consume budget.
func NewSearchTool(client SearchClient, limiter *core.CallLimiter, deduper *embedding.Deduper) *tool.FunctionTool {
	parameters := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of results to return (default 5)",
			},
		},
		"required": []string{"query"},
	}

	return tool.NewFunctionTool(
		"web_search",
		"Search the web for pages relevant to a query. Returns titles, URLs and snippets.",
		parameters,
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return nil, tool.NewToolError("web_search", "query must not be empty", "VALIDATION_ERROR")
			}

			limit := defaultSearchLimit
			if raw, ok := args["limit"].(float64); ok && raw > 0 {
				limit = int(raw)
			}

			if limiter != nil && limiter.Remaining() == 0 {
				return nil, tool.NewToolError("web_search",
					fmt.Sprintf("search call budget of %d exhausted", limiter.Max()),
					CodeBudgetExceeded)
			}

			if deduper != nil {
				dup, matched, err := deduper.Check(toolCtx.Context(), query)
				if err != nil {
					toolCtx.LogWarn("tool.search.dedup_degraded", "query", query, "error", err)
				}
				if dup {
					return nil, tool.NewToolError("web_search",
						fmt.Sprintf("query too similar to earlier query %q", matched),
						CodeDuplicateQuery)
				}
			}

			if limiter != nil {
				if err := limiter.Allow(); err != nil {
					return nil, tool.NewToolError("web_search", err.Error(), CodeBudgetExceeded)
				}
			}

			results, err := client.Search(toolCtx.Context(), query, limit)
			if err != nil {
				return nil, fmt.Errorf("search failed: %w", err)
			}

			toolCtx.LogDebug("tool.search.success", "query", query, "results", len(results))

			return map[string]any{
				"query":   query,
				"results": results,
				"total":   len(results),
			}, nil
		},
	)
}

// NewScrapeTool wraps client as a function tool with a per-worker call budget.
func NewScrapeTool(client ScrapeClient, limiter *core.CallLimiter) *tool.FunctionTool {
	parameters := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL of the page to scrape",
			},
		},
		"required": []string{"url"},
	}

	return tool.NewFunctionTool(
		"scrape_website",
		"Fetch the full content of a web page as markdown. Use after web_search when snippets are not enough.",
		parameters,
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			pageURL, _ := args["url"].(string)
			if pageURL == "" {
				return nil, tool.NewToolError("scrape_website", "url must not be empty", "VALIDATION_ERROR")
			}

			if limiter != nil {
				if err := limiter.Allow(); err != nil {
					return nil, tool.NewToolError("scrape_website", err.Error(), CodeBudgetExceeded)
				}
			}

			content, err := client.Scrape(toolCtx.Context(), pageURL)
			if err != nil {
				return nil, fmt.Errorf("scrape failed: %w", err)
			}

			toolCtx.LogDebug("tool.scrape.success", "url", pageURL, "bytes", len(content))

			return map[string]any{
				"url":     pageURL,
				"content": content,
			}, nil
		},
	)
}
