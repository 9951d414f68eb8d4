package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/aretw0/canopy/pkg/workflow"
	"github.com/google/uuid"
)

// ErrStop may be returned by a Run callback to end the loop without error.
var ErrStop = errors.New("runner stopped")

// Step is the result of one applied action.
type Step[O, R any] struct {
	// Output is the root output produced by the action chain, if any.
	Output *O
	// Rendering is the root rendering after the re-render.
	Rendering R
}

// Runner drives a workflow tree: it waits for resolved actions, applies them,
// re-renders and persists the session snapshot.
type Runner[I, O, R any] struct {
	workflow workflow.Workflow[I, O, R]
	tree     *workflow.Tree[I, O, R]

	sessions  *session.Manager
	sessionID string
	snapshot  *domain.Snapshot
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// New creates a runner for w. Nothing runs until Start.
func New[I, O, R any](w workflow.Workflow[I, O, R], opts ...Option) *Runner[I, O, R] {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.sessions == nil && s.store != nil {
		s.sessions = session.NewManager(s.store, session.WithLogger(s.logger))
	}
	if s.sessions != nil && s.sessionID == "" {
		s.sessionID = uuid.NewString()
	}

	r := &Runner[I, O, R]{
		workflow:  w,
		sessions:  s.sessions,
		sessionID: s.sessionID,
		snapshot:  s.snapshot,
		hooks:     s.hooks,
		logger:    s.logger,
	}
	if r.sessionID != "" {
		r.logger = r.logger.With("session_id", r.sessionID)
	}
	return r
}

// SessionID returns the session the runner persists to, or "" if it is ephemeral.
func (r *Runner[I, O, R]) SessionID() string {
	return r.sessionID
}

// Start creates the tree and runs its first render pass. The tree is restored from
// the WithSnapshot snapshot if given, else from the stored session if one exists.
// The resulting snapshot is saved immediately to reserve the session.
func (r *Runner[I, O, R]) Start(ctx context.Context, input I) (R, error) {
	var zero R
	if r.tree != nil {
		return zero, domain.ErrAlreadyStarted
	}

	snap := r.snapshot
	resumed := false
	if snap == nil && r.sessions != nil {
		stored, err := r.sessions.LoadIfExists(ctx, r.sessionID)
		if err != nil {
			return zero, fmt.Errorf("failed to load session %s: %w", r.sessionID, err)
		}
		snap, resumed = stored, stored != nil
	}

	r.tree = workflow.NewTree(r.workflow,
		workflow.WithContext(context.WithoutCancel(ctx)),
		workflow.WithLogger(r.logger),
		workflow.WithLifecycleHooks(r.hooks),
	)
	rendering, err := r.tree.Start(input, snap)
	if err != nil {
		return zero, err
	}
	r.logger.Info("runner started", "restored", snap != nil, "resumed", resumed)

	if err := r.persist(ctx); err != nil {
		return zero, err
	}
	return rendering, nil
}

// Rendering returns the latest root rendering.
func (r *Runner[I, O, R]) Rendering() R {
	if r.tree == nil {
		var zero R
		return zero
	}
	return r.tree.Rendering()
}

// SendInput re-renders the tree with a new root input and persists the result.
func (r *Runner[I, O, R]) SendInput(ctx context.Context, input I) (R, error) {
	if r.tree == nil {
		var zero R
		return zero, domain.ErrNotStarted
	}
	rendering, err := r.tree.Render(input)
	if err != nil {
		return rendering, err
	}
	return rendering, r.persist(ctx)
}

// Next blocks until an action resolves anywhere in the tree, applies it and
// returns the step. It returns ctx.Err() if ctx is done first.
func (r *Runner[I, O, R]) Next(ctx context.Context) (Step[O, R], error) {
	if r.tree == nil {
		return Step[O, R]{}, domain.ErrNotStarted
	}
	for {
		out, applied, err := r.tree.Tick()
		if err != nil {
			return Step[O, R]{}, err
		}
		if applied {
			step := Step[O, R]{Output: out, Rendering: r.tree.Rendering()}
			if out != nil {
				r.logger.Debug("workflow output emitted")
			}
			return step, r.persist(ctx)
		}

		select {
		case <-ctx.Done():
			return Step[O, R]{}, ctx.Err()
		case <-r.tree.Wake():
		}
	}
}

// Run applies actions until ctx is done or onOutput returns an error. Root outputs
// are passed to onOutput, which may be nil. Returning ErrStop ends the loop with a
// nil error.
func (r *Runner[I, O, R]) Run(ctx context.Context, onOutput func(O) error) error {
	for {
		step, err := r.Next(ctx)
		if err != nil {
			return err
		}
		if step.Output == nil || onOutput == nil {
			continue
		}
		if err := onOutput(*step.Output); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// Snapshot captures the current tree.
func (r *Runner[I, O, R]) Snapshot() (*domain.Snapshot, error) {
	if r.tree == nil {
		return nil, domain.ErrNotStarted
	}
	return r.tree.Snapshot()
}

// Close tears the tree down. The stored session is kept for a later resume.
func (r *Runner[I, O, R]) Close() {
	if r.tree != nil {
		r.tree.Close()
	}
}

func (r *Runner[I, O, R]) persist(ctx context.Context) error {
	if r.sessions == nil {
		return nil
	}
	snap, err := r.tree.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to capture snapshot: %w", err)
	}
	if err := r.sessions.Save(ctx, r.sessionID, snap); err != nil {
		return fmt.Errorf("critical persistence error: %w", err)
	}
	r.logger.Debug("session persisted")
	return nil
}
