package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Option configures a Tree.
type Option func(*treeOptions)

type treeOptions struct {
	ctx    context.Context
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// WithLogger sets a custom structured logger for the tree.
func WithLogger(logger *slog.Logger) Option {
	return func(o *treeOptions) {
		o.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *treeOptions) {
		o.hooks = hooks
	}
}

// WithContext sets the parent context of signal subscriptions and hook calls.
func WithContext(ctx context.Context) Option {
	return func(o *treeOptions) {
		o.ctx = ctx
	}
}

// Tree is a live workflow tree rooted at one workflow. It drives render passes,
// applies resolved actions and captures snapshots.
//
// Methods are safe for concurrent use, but render passes never overlap.
type Tree[I, O, R any] struct {
	mu       sync.Mutex
	workflow Workflow[I, O, R]
	env      *environment
	cancel   context.CancelFunc

	root      instance[I, O, R]
	input     I
	rendering R
	started   bool
	closed    bool
}

// NewTree prepares a tree for w. Nothing runs until Start.
func NewTree[I, O, R any](w Workflow[I, O, R], opts ...Option) *Tree[I, O, R] {
	o := treeOptions{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(o.ctx)
	env := newEnvironment(ctx, o.logger, o.hooks)
	env.logger = env.logger.With("workflow", string(w.Tag()))
	return &Tree[I, O, R]{
		workflow: w,
		env:      env,
		cancel:   cancel,
	}
}

// Start instantiates the root with input, restoring from snapshot when it is not
// nil, and runs the first render pass.
func (t *Tree[I, O, R]) Start(input I, snapshot *domain.Snapshot) (R, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero R
	if t.closed {
		return zero, domain.ErrTreeClosed
	}
	if t.started {
		return zero, domain.ErrAlreadyStarted
	}

	id := domain.NewIdentity(t.workflow.Tag(), "")
	t.root = t.workflow.instantiate(id, nil, snapshot, t.env)
	t.started = true
	t.env.logger.Info("workflow tree started", "restored", snapshot != nil)

	return t.renderLocked(input)
}

// Render runs a render pass with input, which may differ from the previous one.
func (t *Tree[I, O, R]) Render(input I) (R, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.readyLocked(); err != nil {
		var zero R
		return zero, err
	}
	return t.renderLocked(input)
}

// Rendering returns the rendering of the latest pass.
func (t *Tree[I, O, R]) Rendering() R {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rendering
}

// Input returns the input of the latest pass.
func (t *Tree[I, O, R]) Input() I {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input
}

// Wake receives a value whenever a pending action anywhere in the tree may have
// been resolved. Wakeups coalesce; a wakeup does not guarantee Tick applies anything.
func (t *Tree[I, O, R]) Wake() <-chan struct{} {
	return t.env.wake
}

// Tick applies at most one resolved action, routing child outputs up through
// composition handlers, and re-renders the tree when something was applied.
// It returns the root's output, if the action chain produced one.
func (t *Tree[I, O, R]) Tick() (*O, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.readyLocked(); err != nil {
		return nil, false, err
	}
	out, applied := t.root.tick()
	if !applied {
		return nil, false, nil
	}
	if _, err := t.renderLocked(t.input); err != nil {
		return out, true, err
	}
	return out, true, nil
}

// Snapshot captures the state of the whole live tree. It does not mutate any state.
func (t *Tree[I, O, R]) Snapshot() (*domain.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.readyLocked(); err != nil {
		return nil, err
	}
	snap, err := t.root.snapshot()
	if err != nil {
		return nil, err
	}
	if hook := t.env.hooks.OnSnapshot; hook != nil {
		nodes := 0
		_ = snap.Walk(func(domain.Path, *domain.Snapshot) error {
			nodes++
			return nil
		})
		hook(t.env.ctx, &domain.SnapshotEvent{
			EventBase: t.env.base(domain.EventSnapshot, nil),
			Nodes:     nodes,
		})
	}
	return snap, nil
}

// Close tears down every instance, running teardown hooks and cancelling
// subscriptions. It is idempotent.
func (t *Tree[I, O, R]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
}

func (t *Tree[I, O, R]) closeLocked() {
	if t.closed {
		return
	}
	t.closed = true
	if t.root != nil {
		t.root.teardown()
	}
	t.cancel()
	t.env.logger.Info("workflow tree closed")
}

func (t *Tree[I, O, R]) readyLocked() error {
	switch {
	case t.closed:
		return domain.ErrTreeClosed
	case !t.started:
		return domain.ErrNotStarted
	}
	return nil
}

// renderLocked runs a pass from the root. A contract violation raised anywhere in
// the pass closes the tree and is returned; other panics propagate.
func (t *Tree[I, O, R]) renderLocked(input I) (rendering R, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		recErr, ok := rec.(error)
		var violation *domain.ContractError
		if !ok || !errors.As(recErr, &violation) {
			panic(rec)
		}
		t.env.logger.Error("render contract violated", "err", violation)
		t.closeLocked()
		err = violation
	}()

	rendering = t.root.render(input)
	t.input = input
	t.rendering = rendering
	return rendering, nil
}
