package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIEmbedder generates embeddings through Google's Gemini API using the
// SEMANTIC_SIMILARITY task type, which is what duplicate-query detection needs.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder creates an embedder backed by the Gemini API. An empty
// model defaults to gemini-embedding-001.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIEmbedder{client: client, model: model}, nil
}

// Embed implements Embedder for a single text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

// EmbedBatch implements Embedder. The Gemini API supports batching natively.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "SEMANTIC_SIMILARITY",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("genai returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vecs[i] = emb.Values
	}

	return vecs, nil
}

// Name identifies the embedder in logs.
func (e *GenAIEmbedder) Name() string {
	return fmt.Sprintf("genai:%s", e.model)
}
