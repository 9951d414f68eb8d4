package workflow_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// button emits "<label> clicked" when pressed and records its teardown.
func button(rec *recorder) workflow.Workflow[string, string, func()] {
	return workflow.Stateless("button", func(label string, ctx *workflow.RenderContext[struct{}, string]) func() {
		ctx.OnTeardown(func() { rec.add("teardown " + label) })
		press := workflow.OnEvent(ctx, func(struct{}) *domain.Action[struct{}, string] {
			return domain.EmitOutput[struct{}](label + " clicked")
		})
		return func() { press(struct{}{}) }
	})
}

type panelRendering struct {
	Count   int
	Last    string
	Buttons map[string]func()
}

type panelState struct {
	Count int
	Last  string
}

// panel renders one button per label and emits "two clicks" on the second click.
func panel(rec *recorder) workflow.Workflow[[]string, string, panelRendering] {
	btn := button(rec)
	return workflow.FromStateful[[]string, panelState, string, panelRendering]("panel", funcDef[[]string, panelState, string, panelRendering]{
		render: func(labels []string, state panelState, ctx *workflow.RenderContext[panelState, string]) panelRendering {
			r := panelRendering{Count: state.Count, Last: state.Last, Buttons: map[string]func(){}}
			for _, label := range labels {
				r.Buttons[label] = workflow.RenderChild(ctx, btn, label, label, func(out string) *domain.Action[panelState, string] {
					return domain.NewAction("count", func(s panelState) (panelState, *string) {
						s.Count++
						s.Last = out
						if s.Count == 2 {
							done := "two clicks"
							return s, &done
						}
						return s, nil
					})
				})
			}
			return r
		},
	})
}

func TestTree_ChildOutputBubblesToRoot(t *testing.T) {
	host := workflow.NewTree(panel(&recorder{}))
	defer host.Close()
	r, err := host.Start([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Count)

	r.Buttons["a"]()
	out, applied, err := host.Tick()
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Nil(t, out)
	assert.Equal(t, 1, host.Rendering().Count)
	assert.Equal(t, "a clicked", host.Rendering().Last)

	host.Rendering().Buttons["b"]()
	out, applied, err = host.Tick()
	require.NoError(t, err)
	assert.True(t, applied)
	require.NotNil(t, out)
	assert.Equal(t, "two clicks", *out)
	assert.Equal(t, "b clicked", host.Rendering().Last)
}

func TestTree_TickWithoutEventsAppliesNothing(t *testing.T) {
	host := workflow.NewTree(panel(&recorder{}))
	defer host.Close()
	_, err := host.Start([]string{"a"}, nil)
	require.NoError(t, err)

	out, applied, err := host.Tick()
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, out)
}

func TestTree_SupersededHandlersIgnored(t *testing.T) {
	host := workflow.NewTree(panel(&recorder{}))
	defer host.Close()
	stale, err := host.Start([]string{"a"}, nil)
	require.NoError(t, err)

	// A new pass replaces the behavior the stale handler belongs to.
	_, err = host.Render([]string{"a"})
	require.NoError(t, err)

	stale.Buttons["a"]()
	_, applied, err := host.Tick()
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 0, host.Rendering().Count)
}

func TestTree_OneActionPerTick(t *testing.T) {
	host := workflow.NewTree(panel(&recorder{}))
	defer host.Close()
	r, err := host.Start([]string{"a", "b"}, nil)
	require.NoError(t, err)

	r.Buttons["b"]()
	r.Buttons["a"]()

	// Children are visited in composition order; the other event belonged to a
	// superseded pass once the tree re-rendered.
	_, applied, err := host.Tick()
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "a clicked", host.Rendering().Last)

	_, applied, err = host.Tick()
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, host.Rendering().Count)
}

func TestTree_ChildLifecycle(t *testing.T) {
	rec := &recorder{}
	var started, stopped []string
	hooks := domain.LifecycleHooks{
		OnChildStarted: func(_ context.Context, e *domain.NodeEvent) { started = append(started, e.Path) },
		OnChildStopped: func(_ context.Context, e *domain.NodeEvent) { stopped = append(stopped, e.Path) },
	}
	host := workflow.NewTree(panel(rec), workflow.WithLifecycleHooks(hooks))
	r, err := host.Start([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/button#a", "/button#b"}, started)

	oldB := r.Buttons["b"]
	_, err = host.Render([]string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/button#b"}, stopped)
	assert.Equal(t, []string{"teardown b"}, rec.list())

	// An event from the removed child is dropped.
	oldB()
	_, applied, err := host.Tick()
	require.NoError(t, err)
	assert.False(t, applied)

	// Re-declaring the key starts a fresh instance.
	_, err = host.Render([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/button#a", "/button#b", "/button#b"}, started)

	host.Close()
	host.Close()
	assert.ElementsMatch(t, []string{"teardown b", "teardown a", "teardown b"}, rec.list())
	assert.Len(t, stopped, 3)
}

func TestTree_TeardownChildrenBeforeParent(t *testing.T) {
	rec := &recorder{}
	leaf := workflow.Stateless("leaf", func(_ struct{}, ctx *workflow.RenderContext[struct{}, struct{}]) struct{} {
		ctx.OnTeardown(func() { rec.add("leaf") })
		return struct{}{}
	})
	root := workflow.Stateless("root", func(_ struct{}, ctx *workflow.RenderContext[struct{}, struct{}]) struct{} {
		ctx.OnTeardown(func() { rec.add("root") })
		return workflow.RenderChild[struct{}, struct{}, struct{}](ctx, leaf, struct{}{}, "", nil)
	})

	host := workflow.NewTree(root)
	_, err := host.Start(struct{}{}, nil)
	require.NoError(t, err)
	host.Close()

	assert.Equal(t, []string{"leaf", "root"}, rec.list())
}

func TestTree_InputChangeNotifiesOnlyOnDifference(t *testing.T) {
	var changes atomic.Int32
	w := workflow.FromStateful[string, string, struct{}, string]("echo", funcDef[string, string, struct{}, string]{
		initial: func(input string, _ []byte) (string, error) { return input, nil },
		changed: func(_, new string, _ string) string {
			changes.Add(1)
			return new
		},
		render: func(_ string, state string, _ *workflow.RenderContext[string, struct{}]) string {
			return state
		},
	})

	host := workflow.NewTree(w)
	defer host.Close()
	r, err := host.Start("one", nil)
	require.NoError(t, err)
	assert.Equal(t, "one", r)

	r, err = host.Render("one")
	require.NoError(t, err)
	assert.Equal(t, "one", r)
	assert.Equal(t, int32(0), changes.Load())

	r, err = host.Render("two")
	require.NoError(t, err)
	assert.Equal(t, "two", r)
	assert.Equal(t, int32(1), changes.Load())
	assert.Equal(t, "two", host.Input())
}

func TestTree_SignalResolvesPending(t *testing.T) {
	ch := make(chan int)
	w := workflow.FromStateful[struct{}, int, int, int]("counter", funcDef[struct{}, int, int, int]{
		render: func(_ struct{}, state int, ctx *workflow.RenderContext[int, int]) int {
			workflow.OnReceive(ctx, workflow.FromChannel("ticks", "", ch), func(v int) *domain.Action[int, int] {
				return domain.EnterStateAndEmit(state+v, state+v)
			})
			return state
		},
	})

	host := workflow.NewTree(w)
	defer host.Close()
	_, err := host.Start(struct{}{}, nil)
	require.NoError(t, err)

	for i, want := range []int{5, 12} {
		ch <- want - host.Rendering()
		waitWake(t, host.Wake())
		out, applied, err := host.Tick()
		require.NoError(t, err, "round %d", i)
		require.True(t, applied)
		require.NotNil(t, out)
		assert.Equal(t, want, *out)
		assert.Equal(t, want, host.Rendering())
	}
}

func TestTree_SignalLifetimeFollowsDeclarations(t *testing.T) {
	var subscribes atomic.Int32
	stopped := make(chan struct{})
	source := workflow.Source[int]{
		Type: "probe",
		Subscribe: func(ctx context.Context, _ func(int)) {
			subscribes.Add(1)
			<-ctx.Done()
			close(stopped)
		},
	}
	w := workflow.Stateless("listener", func(listen bool, ctx *workflow.RenderContext[struct{}, struct{}]) bool {
		if listen {
			workflow.OnReceive(ctx, source, func(int) *domain.Action[struct{}, struct{}] { return nil })
		}
		return listen
	})

	host := workflow.NewTree(w)
	defer host.Close()
	_, err := host.Start(true, nil)
	require.NoError(t, err)
	_, err = host.Render(true)
	require.NoError(t, err)

	select {
	case <-stopped:
		t.Fatal("subscription re-declared by the next pass must stay open")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = host.Render(false)
	require.NoError(t, err)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("subscription not cancelled after it stopped being declared")
	}
	assert.Equal(t, int32(1), subscribes.Load())
}

func TestTree_ContractViolationClosesTree(t *testing.T) {
	leaf := workflow.Stateless("leaf", func(struct{}, *workflow.RenderContext[struct{}, struct{}]) struct{} {
		return struct{}{}
	})
	root := workflow.Stateless("root", func(_ struct{}, ctx *workflow.RenderContext[struct{}, struct{}]) struct{} {
		workflow.RenderChild[struct{}, struct{}, struct{}](ctx, leaf, struct{}{}, "dup", nil)
		workflow.RenderChild[struct{}, struct{}, struct{}](ctx, leaf, struct{}{}, "dup", nil)
		return struct{}{}
	})

	host := workflow.NewTree(root)
	_, err := host.Start(struct{}{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	var violation *domain.ContractError
	assert.ErrorAs(t, err, &violation)

	_, err = host.Render(struct{}{})
	assert.ErrorIs(t, err, domain.ErrTreeClosed)
}

func TestTree_NonContractPanicPropagates(t *testing.T) {
	root := workflow.Stateless("root", func(struct{}, *workflow.RenderContext[struct{}, struct{}]) struct{} {
		panic("boom")
	})
	host := workflow.NewTree(root)
	defer host.Close()
	assert.PanicsWithValue(t, "boom", func() {
		_, _ = host.Start(struct{}{}, nil)
	})
}

func TestTree_StateErrors(t *testing.T) {
	host, _ := startTree(t, tree("root"), "in", nil)
	_, err := host.Start("again", nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyStarted)

	fresh := workflow.NewTree(tree("root").workflow())
	_, _, err = fresh.Tick()
	assert.ErrorIs(t, err, domain.ErrNotStarted)
	_, err = fresh.Snapshot()
	assert.ErrorIs(t, err, domain.ErrNotStarted)

	host.Close()
	_, err = host.Render("x")
	assert.ErrorIs(t, err, domain.ErrTreeClosed)
	_, _, err = host.Tick()
	assert.ErrorIs(t, err, domain.ErrTreeClosed)
	_, err = host.Snapshot()
	assert.ErrorIs(t, err, domain.ErrTreeClosed)
}

func TestTree_LifecycleHooks(t *testing.T) {
	var actions []string
	var nodes int
	var renders atomic.Int32
	hooks := domain.LifecycleHooks{
		OnRender:        func(context.Context, *domain.NodeEvent) { renders.Add(1) },
		OnActionApplied: func(_ context.Context, e *domain.ActionEvent) { actions = append(actions, e.Path+" "+e.Action) },
		OnSnapshot:      func(_ context.Context, e *domain.SnapshotEvent) { nodes = e.Nodes },
	}
	host := workflow.NewTree(tree("root", tree("leaf")).workflow(), workflow.WithLifecycleHooks(hooks))
	defer host.Close()
	r, err := host.Start("in", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), renders.Load())

	r.At("leaf").SetData("x")
	nextRendering(t, host)
	assert.Equal(t, []string{"/tree#leaf enterState"}, actions)
	assert.Equal(t, int32(4), renders.Load())

	_, err = host.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, nodes)
}

func waitWake(t *testing.T, wake <-chan struct{}) {
	t.Helper()
	select {
	case <-wake:
	case <-time.After(time.Second):
		t.Fatal("tree was not woken")
	}
}

type adderRendering struct {
	Sum   int
	Press func()
}

// adder sums the values received on ch and renders one button child.
func adder(ch <-chan int) workflow.Workflow[int, string, adderRendering] {
	btn := button(&recorder{})
	return workflow.FromStateful[int, int, string, adderRendering]("adder", funcDef[int, int, string, adderRendering]{
		render: func(_ int, sum int, ctx *workflow.RenderContext[int, string]) adderRendering {
			workflow.OnReceive(ctx, workflow.FromChannel("numbers", "", ch), func(v int) *domain.Action[int, string] {
				return domain.EnterState[int, string](sum*10 + v)
			})
			press := workflow.RenderChild(ctx, btn, "ok", "ok", func(string) *domain.Action[int, string] {
				return domain.Noop[int, string]()
			})
			return adderRendering{Sum: sum, Press: press}
		},
	})
}

func TestTree_SignalSurvivesChildActionWinningTick(t *testing.T) {
	ch := make(chan int)
	host := workflow.NewTree(adder(ch))
	defer host.Close()
	r, err := host.Start(0, nil)
	require.NoError(t, err)

	ch <- 7
	waitWake(t, host.Wake())
	r.Press()

	// The child goes first; the parent's resolved slot is discarded by the re-render.
	_, applied, err := host.Tick()
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, 0, host.Rendering().Sum)

	_, applied, err = host.Tick()
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, 7, host.Rendering().Sum)

	_, applied, err = host.Tick()
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestTree_SignalSurvivesHostRender(t *testing.T) {
	ch := make(chan int)
	host := workflow.NewTree(adder(ch))
	defer host.Close()
	_, err := host.Start(0, nil)
	require.NoError(t, err)

	ch <- 7
	waitWake(t, host.Wake())
	_, err = host.Render(1)
	require.NoError(t, err)

	_, applied, err := host.Tick()
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, 7, host.Rendering().Sum)
}

func TestTree_SignalValuesKeepOrder(t *testing.T) {
	ch := make(chan int)
	host := workflow.NewTree(adder(ch))
	defer host.Close()
	_, err := host.Start(0, nil)
	require.NoError(t, err)

	go func() {
		for _, v := range []int{1, 2, 3} {
			ch <- v
		}
	}()

	deadline := time.After(2 * time.Second)
	for host.Rendering().Sum != 123 {
		select {
		case <-host.Wake():
		case <-deadline:
			t.Fatalf("values not applied in order, sum %d", host.Rendering().Sum)
		}
		for {
			_, applied, err := host.Tick()
			require.NoError(t, err)
			if !applied {
				break
			}
			// Re-rendering with new input must not drop a held value either.
			_, err = host.Render(host.Input() + 1)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 123, host.Rendering().Sum)
}

func TestTree_SharedTypeTagIsContractViolation(t *testing.T) {
	byName := workflow.Stateless("leaf", func(name string, _ *workflow.RenderContext[struct{}, struct{}]) string {
		return name
	})
	byNumber := workflow.Stateless("leaf", func(n int, _ *workflow.RenderContext[struct{}, struct{}]) int {
		return n
	})
	root := workflow.Stateless("root", func(named bool, ctx *workflow.RenderContext[struct{}, struct{}]) struct{} {
		if named {
			workflow.RenderChild[string, struct{}, string](ctx, byName, "a", "x", nil)
		} else {
			workflow.RenderChild[int, struct{}, int](ctx, byNumber, 1, "x", nil)
		}
		return struct{}{}
	})

	host := workflow.NewTree(root)
	_, err := host.Start(true, nil)
	require.NoError(t, err)

	_, err = host.Render(false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWorkflowMismatch)

	_, _, err = host.Tick()
	assert.ErrorIs(t, err, domain.ErrTreeClosed)
}
