package workflow

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

type contextState uint8

const (
	contextOpen contextState = iota
	contextSealed
)

// RenderContext collects the registrations of one render pass. It is single-use:
// Build seals it, and every later call panics with a *domain.ContractError.
//
// Registrations that need their own type parameters (OnEvent, OnReceive,
// RenderChild) are package functions taking the context as first argument.
type RenderContext[S, O any] struct {
	state    contextState
	renderer Renderer[S, O]
	pending  *Pending[S, O]

	compositions  []*Composition[S, O]
	ids           map[domain.Identity]struct{}
	subscriptions []*Subscription[S, O]
	signals       map[SignalKey]struct{}
	teardowns     []func()
}

// NewRenderContext creates an open context whose children are rendered by renderer.
// renderer must not be nil.
func NewRenderContext[S, O any](renderer Renderer[S, O]) *RenderContext[S, O] {
	if renderer == nil {
		panic(domain.Violation("NewRenderContext", domain.ErrNilRenderer))
	}
	return newRenderContext(renderer, nil)
}

func newRenderContext[S, O any](renderer Renderer[S, O], notify func()) *RenderContext[S, O] {
	return &RenderContext[S, O]{
		renderer: renderer,
		pending:  newPending[S, O](notify),
		ids:      make(map[domain.Identity]struct{}),
		signals:  make(map[SignalKey]struct{}),
	}
}

func (c *RenderContext[S, O]) ensureOpen(op string) {
	if c.state != contextOpen {
		panic(domain.Violation(op, domain.ErrContextSealed))
	}
}

// OnTeardown registers cleanup to run when this instance is removed from the tree.
func (c *RenderContext[S, O]) OnTeardown(cleanup func()) {
	c.ensureOpen("OnTeardown")
	c.teardowns = append(c.teardowns, cleanup)
}

// Build seals the context and returns the pass's Behavior.
func (c *RenderContext[S, O]) Build() *Behavior[S, O] {
	c.ensureOpen("Build")
	c.state = contextSealed
	return &Behavior[S, O]{
		pending:       c.pending,
		compositions:  c.compositions,
		subscriptions: c.subscriptions,
		teardowns:     c.teardowns,
	}
}

// OnEvent returns a handler that, on its first effective call, resolves the pass's
// pending action with toAction(event). Calls after the slot is resolved do nothing.
func OnEvent[E, S, O any](ctx *RenderContext[S, O], toAction func(event E) *domain.Action[S, O]) func(E) {
	ctx.ensureOpen("OnEvent")
	pending := ctx.pending
	return func(event E) {
		if pending.IsResolved() {
			return
		}
		pending.Resolve(toAction(event))
	}
}

// Source is an external signal source. Subscribe must deliver values through emit
// until ctx is done; deliveries after that are ignored.
type Source[V any] struct {
	Type      domain.TypeTag
	Key       string
	Subscribe func(ctx context.Context, emit func(V))
}

// FromChannel adapts a channel into a Source.
func FromChannel[V any](tag domain.TypeTag, key string, ch <-chan V) Source[V] {
	return Source[V]{
		Type: tag,
		Key:  key,
		Subscribe: func(ctx context.Context, emit func(V)) {
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-ch:
					if !ok {
						return
					}
					emit(v)
				}
			}
		},
	}
}

// OnReceive subscribes to source. The first value delivered while this pass's
// behavior is current resolves its pending action with toAction(value).
//
// A subscription stays open across passes that declare the same (Type, Key) and is
// cancelled by the first pass that does not.
func OnReceive[V, S, O any](ctx *RenderContext[S, O], source Source[V], toAction func(value V) *domain.Action[S, O]) {
	ctx.ensureOpen("OnReceive")
	key := SignalKey{Type: source.Type, Key: source.Key}
	if _, dup := ctx.signals[key]; dup {
		panic(domain.Violation("OnReceive", fmt.Errorf("%w: %s#%s", domain.ErrDuplicateSubscription, key.Type, key.Key)))
	}
	ctx.signals[key] = struct{}{}

	subscribe := source.Subscribe
	ctx.subscriptions = append(ctx.subscriptions, &Subscription[S, O]{
		Key: key,
		subscribe: func(sctx context.Context, emit func(any)) {
			subscribe(sctx, func(v V) { emit(v) })
		},
		toAction: func(value any) *domain.Action[S, O] {
			typed, _ := value.(V)
			return toAction(typed)
		},
	})
}

// RenderChild declares child under key, renders it with input and returns its
// rendering. Outputs of the child are mapped through handler into actions of the
// parent; a nil handler ignores them.
//
// Declaring the same (child type, key) twice in one pass panics.
func RenderChild[IC, OC, RC, S, O any](
	ctx *RenderContext[S, O],
	child Workflow[IC, OC, RC],
	input IC,
	key string,
	handler func(output OC) *domain.Action[S, O],
) RC {
	ctx.ensureOpen("RenderChild")
	id := ID(child, key)
	if _, dup := ctx.ids[id]; dup {
		panic(domain.Violation("RenderChild", fmt.Errorf("%w: %s", domain.ErrDuplicateIdentity, id)))
	}
	ctx.ids[id] = struct{}{}

	comp := &Composition[S, O]{
		Workflow: child,
		ID:       id,
		Input:    input,
		Handler: func(output any) *domain.Action[S, O] {
			if handler == nil {
				return domain.Noop[S, O]()
			}
			typed, _ := output.(OC)
			return handler(typed)
		},
		start: func(path domain.Path, snapshot *domain.Snapshot, env *environment) treeNode {
			return child.instantiate(id, path, snapshot, env)
		},
	}
	ctx.compositions = append(ctx.compositions, comp)

	rendering := ctx.renderer.Render(comp)
	if rendering == nil {
		var zero RC
		return zero
	}
	typed, ok := rendering.(RC)
	if !ok {
		panic(domain.Violation("RenderChild", fmt.Errorf("%w: %s rendered %T, want %T",
			domain.ErrWorkflowMismatch, id, rendering, typed)))
	}
	return typed
}
