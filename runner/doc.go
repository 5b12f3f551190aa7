// Package runner executes a pipeline run end to end.
//
// The Runner resolves the root agent, opens the event and resume
// channels, and then plays traffic cop: every event an agent emits has
// its state delta applied, is appended to session history, is delivered
// to the caller, and only then is the agent resumed. That ordering is
// what lets a later stage trust that an earlier stage's output key is
// already in session state.
//
// Cancellation is per run. Cancel aborts the run context; agents observe
// it through their contexts and wind down.
package runner
