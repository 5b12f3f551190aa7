package tool

import (
	"github.com/veracity-ai/veracity/core"
)

// NewLoadMemoryTool returns a tool that lets an agent recall previously stored
// research snippets from the session's memory store.
func NewLoadMemoryTool() *FunctionTool {
	return NewFunctionTool(
		"load_memory",
		"Load relevant information previously gathered during this investigation.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Query to search memory for",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return",
				},
			},
			"required": []string{"query"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			limit := 10
			if v, ok := args["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}

			results, err := toolCtx.SearchMemory(query, limit)
			if err != nil {
				return nil, err
			}

			items := make([]map[string]any, 0, len(results))
			for _, r := range results {
				items = append(items, map[string]any{
					"id":       r.ID,
					"content":  r.Content,
					"score":    r.Score,
					"metadata": r.Metadata,
				})
			}

			return map[string]any{
				"query":       query,
				"results":     items,
				"total_found": len(items),
			}, nil
		},
	)
}

// NewSaveToMemoryTool returns a tool that lets an agent persist evidence
// snippets (with their source) for later recall by sibling workers.
func NewSaveToMemoryTool() *FunctionTool {
	return NewFunctionTool(
		"save_to_memory",
		"Save a piece of gathered evidence so it can be recalled later in this investigation.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": map[string]any{
					"type":        "string",
					"description": "Content to save",
				},
				"source": map[string]any{
					"type":        "string",
					"description": "Source URL or identifier",
				},
			},
			"required": []string{"content", "source"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			content, _ := args["content"].(string)
			source, _ := args["source"].(string)

			md := map[string]any{"source": source, "agent": toolCtx.AgentName()}

			if err := toolCtx.StoreMemory(content, md); err != nil {
				return nil, err
			}

			return map[string]any{
				"saved":          true,
				"content_length": len(content),
				"source":         source,
			}, nil
		},
	)
}
