// Package memory provides MemoryStore implementations. Research workers
// pool evidence here between batches: each worker stores the snippets it
// finds and later workers recall them before spending search budget on a
// question that is already answered.
//
// The store contract (core.MemoryStore) and SearchResult live in core so
// alternative backends can be added without dependency cycles.
package memory
