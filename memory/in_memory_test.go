package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/veracity-ai/veracity/core"
)

var _ core.MemoryStore = (*InMemoryStore)(nil)

func TestStoreGetAndPut(t *testing.T) {
	store := NewInMemoryStore()
	m, err := store.Get("run1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty memory, got %#v", m)
	}
	if err := store.Put("run1", map[string]any{"claim_count": 3, "topic": "vaccines"}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, _ := store.Get("run1")
	if len(got) != 2 || got["topic"] != "vaccines" || got["claim_count"].(int) != 3 {
		t.Fatalf("unexpected memory contents: %#v", got)
	}
	// the returned map is a copy, mutating it must not leak back
	got["topic"] = "changed"
	again, _ := store.Get("run1")
	if again["topic"] != "vaccines" {
		t.Fatalf("expected copy isolation, got %#v", again["topic"])
	}
}

func TestStoreEvidenceSearchDelete(t *testing.T) {
	store := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		snippet := fmt.Sprintf("evidence snippet %d about sea level rise", i)
		if err := store.Store("run2", snippet, map[string]any{"source": "web", "rank": i}); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}
	// empty query matches everything up to the limit
	res, err := store.Search("run2", "", 10)
	if err != nil {
		t.Fatalf("search all failed: %v", err)
	}
	if len(res) != 5 {
		t.Fatalf("expected 5 results, got %d", len(res))
	}
	// substring match is case-insensitive
	res2, _ := store.Search("run2", "SNIPPET 3", 5)
	if len(res2) != 1 || res2[0].Content == "" {
		t.Fatalf("expected single match, got %#v", res2)
	}
	res3, _ := store.Search("run2", "", 3)
	if len(res3) != 3 {
		t.Fatalf("expected 3 limited results, got %d", len(res3))
	}
	if err := store.Delete("run2", res[0].ID); err != nil {
		t.Fatalf("delete existing failed: %v", err)
	}
	res4, _ := store.Search("run2", "", 10)
	if len(res4) != 4 {
		t.Fatalf("expected 4 after delete, got %d", len(res4))
	}
	if err := store.Delete("run2", "does_not_exist"); err == nil {
		t.Fatalf("expected error deleting nonexistent entry")
	}
}

func TestStoreSessionIsolation(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.Store("runA", "claim about GDP growth", nil); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	res, err := store.Search("runB", "GDP", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("expected no cross-session results, got %#v", res)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Put("run4", map[string]any{string(rune('A' + (i % 5))): i}); err != nil {
				t.Errorf("put error: %v", err)
			}
			if _, err := store.Get("run4"); err != nil {
				t.Errorf("get error: %v", err)
			}
			if _, err := store.Search("run4", "", 5); err != nil {
				t.Errorf("search error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	m, _ := store.Get("run4")
	if len(m) == 0 {
		t.Fatalf("expected keys after concurrent updates")
	}
}
