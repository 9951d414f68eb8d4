package workflow_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/workflow"
	"github.com/stretchr/testify/require"
)

// treeRendering is the rendering of a treeDef node.
type treeRendering struct {
	Data     string
	SetData  func(string)
	Children map[string]treeRendering
}

// At descends through the named children.
func (r treeRendering) At(names ...string) treeRendering {
	cur := r
	for _, name := range names {
		cur = cur.Children[name]
	}
	return cur
}

// treeDef is a workflow whose state starts as its input, can be replaced through
// SetData, and which renders one child per entry of children. Child i gets the
// input "<input>[i]".
type treeDef struct {
	name     string
	children []*treeDef
}

func tree(name string, children ...*treeDef) *treeDef {
	return &treeDef{name: name, children: children}
}

func (d *treeDef) workflow() workflow.Workflow[string, struct{}, treeRendering] {
	return workflow.FromStateful[string, string, struct{}, treeRendering]("tree", d)
}

func (d *treeDef) InitialState(input string, snapshot []byte) (string, error) {
	if snapshot == nil {
		return input, nil
	}
	var state string
	if err := domain.DecodeState(snapshot, &state); err != nil {
		return "", err
	}
	return state, nil
}

func (d *treeDef) OnInputChanged(_, _ string, state string) string {
	return state
}

func (d *treeDef) Render(input, state string, ctx *workflow.RenderContext[string, struct{}]) treeRendering {
	r := treeRendering{
		Data: d.name + ":" + state,
		SetData: workflow.OnEvent(ctx, func(data string) *domain.Action[string, struct{}] {
			return domain.EnterState[string, struct{}](data)
		}),
		Children: make(map[string]treeRendering, len(d.children)),
	}
	for i, child := range d.children {
		r.Children[child.name] = workflow.RenderChild[string, struct{}, treeRendering](
			ctx, child.workflow(), fmt.Sprintf("%s[%d]", input, i), child.name, nil,
		)
	}
	return r
}

func (d *treeDef) SnapshotState(state string) ([]byte, error) {
	return domain.EncodeState(state)
}

type treeHost = workflow.Tree[string, struct{}, treeRendering]

func startTree(t *testing.T, d *treeDef, input string, snapshot *domain.Snapshot) (*treeHost, treeRendering) {
	t.Helper()
	host := workflow.NewTree(d.workflow())
	t.Cleanup(host.Close)
	rendering, err := host.Start(input, snapshot)
	require.NoError(t, err)
	return host, rendering
}

// nextRendering applies the resolved action and returns the new rendering.
func nextRendering[I, O, R any](t *testing.T, host *workflow.Tree[I, O, R]) R {
	t.Helper()
	_, applied, err := host.Tick()
	require.NoError(t, err)
	require.True(t, applied, "expected a resolved action")
	return host.Rendering()
}

// roundTrip encodes and parses a snapshot, as a host persisting it would.
func roundTrip(t *testing.T, snap *domain.Snapshot) *domain.Snapshot {
	t.Helper()
	data, err := snap.Encode()
	require.NoError(t, err)
	parsed, err := domain.ParseSnapshot(data)
	require.NoError(t, err)
	return parsed
}

// funcDef builds a stateful definition from plain functions. Unset functions
// default to a zero state, keeping state across input changes, and no snapshot bytes.
type funcDef[I, S, O, R any] struct {
	initial  func(input I, snapshot []byte) (S, error)
	changed  func(old, new I, state S) S
	render   func(input I, state S, ctx *workflow.RenderContext[S, O]) R
	snapshot func(state S) ([]byte, error)
}

func (d funcDef[I, S, O, R]) InitialState(input I, snapshot []byte) (S, error) {
	if d.initial == nil {
		var zero S
		return zero, nil
	}
	return d.initial(input, snapshot)
}

func (d funcDef[I, S, O, R]) OnInputChanged(old, new I, state S) S {
	if d.changed == nil {
		return state
	}
	return d.changed(old, new, state)
}

func (d funcDef[I, S, O, R]) Render(input I, state S, ctx *workflow.RenderContext[S, O]) R {
	return d.render(input, state, ctx)
}

func (d funcDef[I, S, O, R]) SnapshotState(state S) ([]byte, error) {
	if d.snapshot == nil {
		return nil, nil
	}
	return d.snapshot(state)
}
