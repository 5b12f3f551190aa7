package embedding

import (
	"context"
	"strings"
	"sync"
)

// Deduper tracks the queries a single research worker has issued and rejects
// new queries that are semantically near-duplicates of earlier ones.
//
// The check is best-effort: when the embedder fails, the query is allowed so
// that a flaky embedding provider never blocks research. Exact (case folded)
// repeats are rejected without an embedding call.
type Deduper struct {
	embedder  Embedder
	threshold float64

	mu      sync.Mutex
	queries []string
	vectors [][]float32
}

// NewDeduper creates a Deduper with the given similarity threshold. Queries
// whose cosine similarity to any previously seen query is >= threshold are
// reported as duplicates.
func NewDeduper(embedder Embedder, threshold float64) *Deduper {
	return &Deduper{
		embedder:  embedder,
		threshold: threshold,
	}
}

// Check reports whether query duplicates an earlier one. On a non-duplicate
// the query is recorded so later calls compare against it. The second return
// value is the earlier query that matched, empty when the query is fresh.
func (d *Deduper) Check(ctx context.Context, query string) (bool, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	folded := strings.ToLower(strings.TrimSpace(query))
	for _, q := range d.queries {
		if strings.ToLower(strings.TrimSpace(q)) == folded {
			return true, q, nil
		}
	}

	if d.embedder == nil {
		d.queries = append(d.queries, query)
		d.vectors = append(d.vectors, nil)
		return false, "", nil
	}

	vec, err := d.embedder.Embed(ctx, query)
	if err != nil {
		// Best effort: an embedding failure must not block the worker.
		d.queries = append(d.queries, query)
		d.vectors = append(d.vectors, nil)
		return false, "", err
	}

	for i, prev := range d.vectors {
		if prev == nil {
			continue
		}

		if Cosine(vec, prev) >= d.threshold {
			return true, d.queries[i], nil
		}
	}

	d.queries = append(d.queries, query)
	d.vectors = append(d.vectors, vec)

	return false, "", nil
}

// Seen returns the number of recorded queries.
func (d *Deduper) Seen() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.queries)
}
