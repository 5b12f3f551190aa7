// Package artifact contains concrete implementations of core.ArtifactStore.
//
// The canonical ArtifactStore interface lives in the core package to keep
// domain contracts central and avoid dependency cycles. This package supplies
// the storage backends; the pipeline uses it to persist the final report JSON
// so callers can fetch it after a run completes.
//
// Callers should depend on the core interface rather than concrete types so
// alternative persistence layers can be substituted in tests or production.
package artifact
