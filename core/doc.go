// Package core provides the foundational domain types, interfaces and
// execution contexts for the fact-checking pipeline. It defines:
//
//   - Agents (units of autonomous / orchestrated work)
//   - Sessions (stateful containers with event history shared across stages)
//   - Events (immutable communication + orchestration records)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - CallLimiter (per-capability call budgets)
//   - Pluggable stores for session state, artifacts and memory recall/search
//
// Implementation concerns (persistence, runner orchestration, concrete
// agents) live in their own packages; core exposes small interfaces to enable
// custom backends.
package core
