package core

import (
	"fmt"
	"sync"
)

// CallLimiter enforces a maximum number of allowed calls for one capability
// (model generations, search requests, scrape requests) within a scope such
// as a run or a single research worker.
type CallLimiter struct {
	capability string
	max        int
	count      int
	mu         sync.Mutex
}

// NewCallLimiter creates a limiter for the named capability with a max number
// of calls. If max == 0, unlimited calls are allowed.
func NewCallLimiter(capability string, max int) *CallLimiter {
	return &CallLimiter{capability: capability, max: max}
}

// Allow increases the call counter and returns an error if the limit is
// exceeded. The counter is incremented even on rejection so Count reflects
// attempts.
func (cl *CallLimiter) Allow() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.count++
	if cl.max > 0 && cl.count > cl.max {
		return fmt.Errorf("exceeded max %s calls: %d", cl.capability, cl.max)
	}

	return nil
}

// Capability returns the capability name this limiter guards.
func (cl *CallLimiter) Capability() string { return cl.capability }

// Max returns the configured call limit. Zero means unlimited.
func (cl *CallLimiter) Max() int { return cl.max }

// Count returns the current number of call attempts made.
func (cl *CallLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.count
}

// Remaining returns how many calls are left before hitting the limit.
// Returns -1 for unlimited limiters.
func (cl *CallLimiter) Remaining() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.max == 0 {
		return -1
	}
	if cl.count >= cl.max {
		return 0
	}

	return cl.max - cl.count
}
