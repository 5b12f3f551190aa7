package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/veracity-ai/veracity/artifact"
	"github.com/veracity-ai/veracity/core"
	"github.com/veracity-ai/veracity/logging"
	"github.com/veracity-ai/veracity/memory"
	"github.com/veracity-ai/veracity/session"
)

// Options holds dependency and configuration overrides passed to New.
type Options struct {
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// MaxModelCalls caps model calls per run, 0 for unlimited.
	MaxModelCalls int
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore
	Logger        logging.Logger
}

// Runner drives the root agent of a pipeline run: it builds the run
// context, streams events to the caller, applies their side effects and
// persists history. Public methods are safe for concurrent use.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	maxModelCalls   int

	sessionStore  core.SessionStore
	artifactStore core.ArtifactStore
	memoryStore   core.MemoryStore
	logger        logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with in-memory stores unless overridden.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		MaxModelCalls:   100,
		SessionStore:    session.NewInMemoryStore(),
		ArtifactStore:   artifact.NewInMemoryStore(),
		MemoryStore:     memory.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		sessionStore:    opts.SessionStore,
		artifactStore:   opts.ArtifactStore,
		memoryStore:     opts.MemoryStore,
		logger:          opts.Logger,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// SessionStore exposes the configured session store for callers that need to
// read final pipeline state after a run completes.
func (r *Runner) SessionStore() core.SessionStore { return r.sessionStore }

// ArtifactStore exposes the configured artifact store.
func (r *Runner) ArtifactStore() core.ArtifactStore { return r.artifactStore }

// Run starts an asynchronous run of the root agent. The returned
// channels are closed when the run finishes; callers drain both.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	runID := core.NewID()

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)
	// Resume tokens must never be dropped: flows block on one token per
	// persisted event, so buffer generously.
	resumeCh := make(chan struct{}, r.eventBufferSize)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	agentInfo := core.AgentInfo{Name: r.agent.Name(), Type: "root"}

	runCtx := core.NewRunContext(
		ctx,
		sessionID,
		runID,
		agentInfo,
		userContent,
		r.maxModelCalls,
		agentEmit,
		resumeCh,
		sess,
		r.sessionStore,
		r.artifactStore,
		r.memoryStore,
		r.logger,
	)

	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.sessionStore.AppendEvent(sessionID, userEvent); err != nil {
		return "", nil, nil, fmt.Errorf("failed to append user event: %w", err)
	}

	go func() {
		defer func() {
			close(agentEmit)
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
		}()

		if err := r.runAgent(runCtx); err != nil {
			select {
			case <-runCtx.Done():
				return
			case errorsCh <- fmt.Errorf("agent execution failed: %w", err):
			}
		}
	}()

	go func() {
		defer func() { close(eventsCh); close(errorsCh) }()

		r.processEvents(runCtx, sessionID, agentEmit, resumeCh, eventsCh, errorsCh)
	}()

	return runID, eventsCh, errorsCh, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

func (r *Runner) runAgent(runCtx *core.RunContext) error {
	if err := r.agent.Start(runCtx); err != nil {
		return err
	}

	defer func() {
		if err := r.agent.Stop(runCtx); err != nil {
			r.logger.Warn("runner.agent.stop_error", "agent", r.agent.Name(), "error", err.Error())
		}
	}()

	return r.agent.Run(runCtx)
}

func (r *Runner) processEvents(
	runCtx *core.RunContext,
	sessionID string,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	eventsCh chan<- core.Event,
	errorsCh chan<- error,
) {
	for {
		select {
		case <-runCtx.Done():
			return
		case ev, ok := <-agentEmit:
			if !ok {
				return
			}
			if err := r.applyEventActions(sessionID, ev); err != nil {
				select {
				case <-runCtx.Done():
					return
				case errorsCh <- fmt.Errorf("failed to process event actions: %w", err):
				}
				return
			}
			if !ev.IsPartial() {
				if err := r.sessionStore.AppendEvent(sessionID, ev); err != nil {
					select {
					case <-runCtx.Done():
						return
					case errorsCh <- fmt.Errorf("failed to append event to session: %w", err):
					}
					return
				}
			}
			select {
			case <-runCtx.Done():
				return
			case eventsCh <- ev:
				r.logger.Debug("runner.event.delivered", "event_id", ev.ID, "session_id", sessionID)
			}
			if !ev.IsPartial() {
				select {
				case <-runCtx.Done():
					return
				case resumeCh <- struct{}{}:
				}
			}
		}
	}
}

func (r *Runner) applyEventActions(sessionID string, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.sessionStore.ApplyDelta(sessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}

	if ev.Actions.Escalate != nil && *ev.Actions.Escalate {
		r.logger.Debug("runner.event.escalate", "session_id", sessionID)
	}

	return nil
}
