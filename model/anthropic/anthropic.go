// Package anthropic adapts the Anthropic Messages API to the pipeline's
// model.Model interface, as the alternative backend to OpenAI.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/model"
)

// Options configure the Anthropic adapter. APIKey overrides the SDK's
// environment-based auth when set.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Model wraps the Anthropic Messages API behind model.Model.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates an adapter with its own SDK client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates an adapter from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model. Anthropic keeps system text outside the
// message list and embeds tool results inside assistant turns, so contents
// are reshaped accordingly before the call.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    m.toMessages(req.Contents),
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}
		if system := systemBlocks(req.Contents); len(system) > 0 {
			params.System = system
		}
		if len(req.Tools) > 0 {
			params.Tools = toToolParams(req.Tools)
		}

		if req.Stream {
			// TODO: stream via anthropic.MessageStreamEvent once a stage
			// actually consumes partial output; all current stages read
			// only final responses.
			errCh <- fmt.Errorf("streaming not yet implemented for anthropic model")
			return
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		var parts []core.Part
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textBlock := block.AsText()
				if textBlock.Text != "" {
					parts = append(parts, core.TextPart{Text: textBlock.Text})
				}
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(argsBytes)
					}
				}
				parts = append(parts, core.FunctionCallPart{
					FunctionCall: core.FunctionCall{
						ID:        toolBlock.ID,
						Name:      toolBlock.Name,
						Arguments: args,
					},
				})
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		out <- model.Response{
			Partial:      false,
			Content:      core.Content{Role: "assistant", Parts: parts},
			FinishReason: finishReason,
		}
	}()

	return out, errCh
}

// toMessages converts normalized contents into Anthropic messages. Tool
// results are indexed by call id first, then spliced into the assistant
// turns that issued the calls.
func (m *Model) toMessages(contents []core.Content) []anthropic.MessageParam {
	toolResults := make(map[string]string)
	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			fr, ok := p.(core.FunctionResponsePart)
			if !ok || fr.FunctionResponse.ID == "" {
				continue
			}
			if s, ok := fr.FunctionResponse.Response.(string); ok {
				toolResults[fr.FunctionResponse.ID] = s
			} else {
				toolResults[fr.FunctionResponse.ID] = fmt.Sprintf("%v", fr.FunctionResponse.Response)
			}
		}
	}

	var messages []anthropic.MessageParam
	for _, c := range contents {
		if c.Role == "system" || c.Role == "tool" {
			continue
		}

		switch c.Role {
		case "assistant":
			if content := assistantBlocks(c.Parts, toolResults); len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		default:
			// User and unknown roles both become user messages.
			if content := textBlocks(c.Parts); len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		}
	}

	return messages
}

// systemBlocks gathers system-role text into Anthropic system blocks.
func systemBlocks(contents []core.Content) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, c := range contents {
		if c.Role != "system" {
			continue
		}
		for _, p := range c.Parts {
			if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
				blocks = append(blocks, anthropic.TextBlockParam{Text: tp.Text})
			}
		}
	}
	return blocks
}

// textBlocks converts text parts into content blocks.
func textBlocks(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
			content = append(content, anthropic.NewTextBlock(tp.Text))
		}
	}
	return content
}

// assistantBlocks converts an assistant turn into content blocks, replaying
// tool_use blocks and attaching their results directly after.
func assistantBlocks(
	parts []core.Part,
	toolResults map[string]string,
) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	var callIDs []string

	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				content = append(content, anthropic.NewTextBlock(part.Text))
			}
		case core.FunctionCallPart:
			var input interface{}
			if part.FunctionCall.Arguments != "" {
				if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &input); err != nil {
					input = part.FunctionCall.Arguments // fallback to raw string
				}
			}
			content = append(content, anthropic.NewToolUseBlock(
				part.FunctionCall.ID,
				input,
				part.FunctionCall.Name,
			))
			callIDs = append(callIDs, part.FunctionCall.ID)
		}
	}

	for _, id := range callIDs {
		if resp, ok := toolResults[id]; ok {
			content = append(content, anthropic.NewToolResultBlock(id, resp, false))
			delete(toolResults, id)
		}
	}

	return content
}

// toToolParams converts normalized tool definitions to Anthropic tool params.
// Required lists arrive as []string from reflection-derived schemas and as
// []any from hand-written ones; both are accepted.
func toToolParams(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))

	for i, tdef := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if params := tdef.Function.Parameters; params != nil {
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			switch required := params["required"].(type) {
			case []string:
				inputSchema.Required = required
			case []interface{}:
				var names []string
				for _, r := range required {
					if s, ok := r.(string); ok {
						names = append(names, s)
					}
				}
				inputSchema.Required = names
			}
		}

		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, tdef.Function.Name)
	}

	return out
}

// Info returns metadata describing this backend.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
