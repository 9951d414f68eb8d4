package workflow

import (
	"context"
	"slices"

	"github.com/aretw0/canopy/pkg/domain"
)

// Behavior is the frozen result of one render pass: the pending action slot plus
// everything the pass declared. It is read-only.
type Behavior[S, O any] struct {
	pending       *Pending[S, O]
	compositions  []*Composition[S, O]
	subscriptions []*Subscription[S, O]
	teardowns     []func()
}

// Pending returns the slot resolved by whichever event or signal fires first.
func (b *Behavior[S, O]) Pending() *Pending[S, O] {
	return b.pending
}

// Compositions returns the declared children in declaration order.
func (b *Behavior[S, O]) Compositions() []*Composition[S, O] {
	return slices.Clone(b.compositions)
}

// Subscriptions returns the declared signal subscriptions in declaration order.
func (b *Behavior[S, O]) Subscriptions() []*Subscription[S, O] {
	return slices.Clone(b.subscriptions)
}

// Teardowns returns the number of registered teardown hooks.
func (b *Behavior[S, O]) Teardowns() int {
	return len(b.teardowns)
}

// Composition is one child declared by a parent during a render pass.
type Composition[S, O any] struct {
	// Workflow is the child workflow value passed to RenderChild.
	Workflow any
	ID       domain.Identity
	Input    any

	// Handler maps a child output to an action of the parent.
	Handler func(output any) *domain.Action[S, O]

	start func(path domain.Path, snapshot *domain.Snapshot, env *environment) treeNode
}

// SignalKey distinguishes signal sources declared by one render pass.
type SignalKey struct {
	Type domain.TypeTag
	Key  string
}

// Subscription is one external signal source declared during a render pass.
type Subscription[S, O any] struct {
	Key SignalKey

	subscribe func(ctx context.Context, emit func(any))
	toAction  func(value any) *domain.Action[S, O]
}

// Renderer runs the render pass of a declared child and returns its rendering.
// The live tree supplies one per node; tests may supply their own.
type Renderer[S, O any] interface {
	Render(c *Composition[S, O]) any
}
