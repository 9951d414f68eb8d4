package workflow

import (
	"github.com/aretw0/canopy/pkg/domain"
)

// Workflow is a composable unit that renders values of type R from input I and may
// emit outputs of type O to its parent.
//
// Values are obtained from FromStateful or Stateless.
type Workflow[I, O, R any] interface {
	// Tag names the workflow type. Children are matched across render passes by
	// (Tag, key).
	Tag() domain.TypeTag

	instantiate(id domain.Identity, path domain.Path, snapshot *domain.Snapshot, env *environment) instance[I, O, R]
}

// Stateful is implemented by workflow definitions that hold private state S.
type Stateful[I, S, O, R any] interface {
	// InitialState computes the state of a freshly started instance. snapshot is nil
	// on a fresh start and holds the bytes produced by SnapshotState on restore.
	// An error on restore makes the runtime retry with a nil snapshot.
	InitialState(input I, snapshot []byte) (S, error)

	// OnInputChanged is called before Render when the parent supplies a different input.
	OnInputChanged(old, new I, state S) S

	// Render produces the rendering and declares handlers and children on ctx.
	// It must be a finite, synchronous computation.
	Render(input I, state S, ctx *RenderContext[S, O]) R

	// SnapshotState serializes state. It must be deterministic.
	SnapshotState(state S) ([]byte, error)
}

// FromStateful wraps a stateful definition into a Workflow with the given type tag.
func FromStateful[I, S, O, R any](tag domain.TypeTag, def Stateful[I, S, O, R]) Workflow[I, O, R] {
	return &stateful[I, S, O, R]{tag: tag, def: def}
}

// Stateless creates a workflow without private state. Its snapshot carries no local
// bytes, only those of its children.
func Stateless[I, O, R any](tag domain.TypeTag, render func(input I, ctx *RenderContext[struct{}, O]) R) Workflow[I, O, R] {
	return FromStateful[I, struct{}, O, R](tag, statelessDef[I, O, R](render))
}

// ID returns the Identity a child rendered with key gets in its parent.
func ID[I, O, R any](w Workflow[I, O, R], key string) domain.Identity {
	return domain.NewIdentity(w.Tag(), key)
}

type stateful[I, S, O, R any] struct {
	tag domain.TypeTag
	def Stateful[I, S, O, R]
}

func (w *stateful[I, S, O, R]) Tag() domain.TypeTag {
	return w.tag
}

func (w *stateful[I, S, O, R]) instantiate(id domain.Identity, path domain.Path, snapshot *domain.Snapshot, env *environment) instance[I, O, R] {
	return newNode(w, id, path, snapshot, env)
}

type statelessDef[I, O, R any] func(input I, ctx *RenderContext[struct{}, O]) R

func (f statelessDef[I, O, R]) InitialState(I, []byte) (struct{}, error) {
	return struct{}{}, nil
}

func (f statelessDef[I, O, R]) OnInputChanged(_, _ I, state struct{}) struct{} {
	return state
}

func (f statelessDef[I, O, R]) Render(input I, _ struct{}, ctx *RenderContext[struct{}, O]) R {
	return f(input, ctx)
}

func (f statelessDef[I, O, R]) SnapshotState(struct{}) ([]byte, error) {
	return nil, nil
}
