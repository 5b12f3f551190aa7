package embedding

import (
	"context"
	"fmt"
	"sync"
)

// StaticEmbedder serves canned vectors keyed by exact text. It backs tests and
// offline runs where no embedding provider is available.
type StaticEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32

	// Err, when set, is returned by every call.
	Err error
}

// NewStaticEmbedder creates an empty StaticEmbedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{vectors: make(map[string][]float32)}
}

// Add registers the vector returned for text.
func (s *StaticEmbedder) Add(text string, vec []float32) *StaticEmbedder {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors[text] = vec

	return s
}

// Embed implements Embedder.
func (s *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vec, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no static embedding for %q", text)
	}

	return vec, nil
}

// EmbedBatch implements Embedder.
func (s *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}

	return vecs, nil
}
