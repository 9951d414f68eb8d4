package workflow

import (
	"fmt"
	"reflect"

	"github.com/aretw0/canopy/pkg/domain"
)

// treeNode is the type-erased view of a live instance, as held by its parent.
type treeNode interface {
	identity() domain.Identity
	renderAny(input any) any
	tickAny() tickResult
	snapshot() (*domain.Snapshot, error)
	teardown()
}

type tickResult struct {
	applied bool
	emitted bool
	output  any
}

// instance is the typed view of a live instance, used at the root of a tree.
type instance[I, O, R any] interface {
	treeNode
	render(input I) R
	tick() (*O, bool)
}

// node is one live workflow instance. It is only touched by the goroutine driving
// the tree, except for its pending slots and subscriptions.
type node[I, S, O, R any] struct {
	workflow *stateful[I, S, O, R]
	id       domain.Identity
	path     domain.Path
	env      *environment

	started bool
	input   I
	state   S
	restore *domain.Snapshot

	children *subtree[S, O]
	behavior *Behavior[S, O]
	consumed bool
	subs     map[SignalKey]*liveSubscription[S, O]
	closed   bool
}

func newNode[I, S, O, R any](w *stateful[I, S, O, R], id domain.Identity, path domain.Path, snapshot *domain.Snapshot, env *environment) *node[I, S, O, R] {
	return &node[I, S, O, R]{
		workflow: w,
		id:       id,
		path:     path,
		env:      env,
		restore:  snapshot,
		children: newSubtree[S, O](path, snapshot, env),
		subs:     make(map[SignalKey]*liveSubscription[S, O]),
	}
}

func (n *node[I, S, O, R]) identity() domain.Identity {
	return n.id
}

func (n *node[I, S, O, R]) render(input I) R {
	if !n.started {
		n.state = n.initialState(input)
		n.started = true
	} else if !reflect.DeepEqual(n.input, input) {
		n.state = n.workflow.def.OnInputChanged(n.input, input, n.state)
	}
	n.input = input

	ctx := newRenderContext[S, O](n.children, n.env.signal)
	n.children.begin()
	rendering := n.workflow.def.Render(input, n.state, ctx)
	behavior := ctx.Build()
	n.children.commit()

	n.bindSubscriptions(behavior)
	n.behavior = behavior
	n.consumed = false
	n.restore = nil

	n.env.logger.Debug("rendered workflow",
		"path", n.path.String(),
		"children", len(behavior.compositions),
		"subscriptions", len(behavior.subscriptions),
	)
	n.env.emitNode(domain.EventRender, n.env.hooks.OnRender, n.path, n.id, false)
	return rendering
}

func (n *node[I, S, O, R]) renderAny(input any) any {
	typed, ok := input.(I)
	if !ok && input != nil {
		panic(domain.Violation("RenderChild", fmt.Errorf("%w: %s takes %T, got %T",
			domain.ErrWorkflowMismatch, n.path, typed, input)))
	}
	return n.render(typed)
}

// initialState restores from the node's snapshot when there is one and falls back
// to a fresh start if the bytes are rejected.
func (n *node[I, S, O, R]) initialState(input I) S {
	def := n.workflow.def
	if n.restore != nil {
		local := n.restore.State
		if local == nil {
			local = []byte{}
		}
		state, err := def.InitialState(input, local)
		if err == nil {
			return state
		}
		n.env.logger.Warn("workflow state not restored, starting fresh",
			"path", n.path.String(),
			"err", err,
		)
		if hook := n.env.hooks.OnRestoreFailed; hook != nil {
			hook(n.env.ctx, &domain.RestoreEvent{
				EventBase: n.env.base(domain.EventRestoreFailed, n.path),
				Workflow:  n.workflow.tag,
				Err:       err,
			})
		}
	}
	state, err := def.InitialState(input, nil)
	if err != nil {
		panic(domain.Violation("InitialState", fmt.Errorf("%s: %w", n.path, err)))
	}
	return state
}

// tick applies at most one resolved action in this subtree: a child's first,
// in composition order, then this node's own.
func (n *node[I, S, O, R]) tick() (*O, bool) {
	if n.closed || n.behavior == nil || n.consumed {
		return nil, false
	}
	for _, slot := range n.children.live {
		res := slot.node.tickAny()
		if !res.applied {
			continue
		}
		if !res.emitted {
			return nil, true
		}
		return n.apply(slot.comp.Handler(res.output)), true
	}
	if action, ok := n.behavior.pending.Resolved(); ok {
		return n.apply(action), true
	}
	return nil, false
}

func (n *node[I, S, O, R]) tickAny() tickResult {
	out, applied := n.tick()
	if out == nil {
		return tickResult{applied: applied}
	}
	return tickResult{applied: applied, emitted: true, output: *out}
}

func (n *node[I, S, O, R]) apply(action *domain.Action[S, O]) *O {
	next, out := action.Run(n.state)
	n.state = next
	n.consumed = true
	for _, sub := range n.subs {
		sub.applied(action)
	}

	n.env.logger.Debug("applied action",
		"path", n.path.String(),
		"action", action.String(),
		"emitted", out != nil,
	)
	if hook := n.env.hooks.OnActionApplied; hook != nil {
		hook(n.env.ctx, &domain.ActionEvent{
			EventBase: n.env.base(domain.EventActionApplied, n.path),
			Workflow:  n.workflow.tag,
			Action:    action.String(),
			Emitted:   out != nil,
		})
	}
	return out
}

func (n *node[I, S, O, R]) snapshot() (*domain.Snapshot, error) {
	local, err := n.workflow.def.SnapshotState(n.state)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", n.path, err)
	}
	snap := &domain.Snapshot{State: local}
	for _, slot := range n.children.live {
		child, err := slot.node.snapshot()
		if err != nil {
			return nil, err
		}
		snap.Children = append(snap.Children, domain.ChildSnapshot{
			ID:       slot.node.identity(),
			Snapshot: child,
		})
	}
	return snap, nil
}

// teardown stops descendants, cancels subscriptions, then runs this node's
// teardown hooks. It is idempotent.
func (n *node[I, S, O, R]) teardown() {
	if n.closed {
		return
	}
	n.closed = true
	n.children.teardownAll()
	for key, sub := range n.subs {
		sub.stop()
		delete(n.subs, key)
	}
	if n.behavior != nil {
		for _, fn := range n.behavior.teardowns {
			fn()
		}
	}
	n.behavior = nil
}

func (n *node[I, S, O, R]) bindSubscriptions(b *Behavior[S, O]) {
	declared := make(map[SignalKey]struct{}, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		declared[sub.Key] = struct{}{}
		if live, ok := n.subs[sub.Key]; ok {
			live.bind(b.pending, sub.toAction)
			continue
		}
		n.subs[sub.Key] = startSubscription(n.env.ctx, sub, b.pending)
		n.env.logger.Debug("subscribed to signal",
			"path", n.path.String(),
			"signal", string(sub.Key.Type),
			"key", sub.Key.Key,
		)
	}
	for key, live := range n.subs {
		if _, ok := declared[key]; !ok {
			live.stop()
			delete(n.subs, key)
		}
	}
}
