package domain

// Action is a pure transform from a workflow's current state to its next state,
// optionally producing an output for the parent (or the host, at the root).
//
// Actions are compared by pointer: the value handed to a pending slot is the same
// value the host later applies.
type Action[S, O any] struct {
	// Name labels the action in logs and lifecycle events.
	Name string

	// Apply computes the next state and an optional output. It must be free of side effects.
	Apply func(state S) (S, *O)
}

// NewAction creates a named action from a transform.
func NewAction[S, O any](name string, apply func(state S) (S, *O)) *Action[S, O] {
	return &Action[S, O]{Name: name, Apply: apply}
}

// Run applies the action to state. A nil action, or one without a transform, is a noop.
func (a *Action[S, O]) Run(state S) (S, *O) {
	if a == nil || a.Apply == nil {
		return state, nil
	}
	return a.Apply(state)
}

// String returns the action name.
func (a *Action[S, O]) String() string {
	if a == nil || a.Name == "" {
		return "anonymous"
	}
	return a.Name
}

// Noop leaves the state unchanged and emits nothing.
func Noop[S, O any]() *Action[S, O] {
	return &Action[S, O]{
		Name: "noop",
		Apply: func(state S) (S, *O) {
			return state, nil
		},
	}
}

// EmitOutput leaves the state unchanged and emits output.
func EmitOutput[S, O any](output O) *Action[S, O] {
	return &Action[S, O]{
		Name: "emitOutput",
		Apply: func(state S) (S, *O) {
			return state, &output
		},
	}
}

// EnterState replaces the state with next and emits nothing.
func EnterState[S, O any](next S) *Action[S, O] {
	return &Action[S, O]{
		Name: "enterState",
		Apply: func(S) (S, *O) {
			return next, nil
		},
	}
}

// EnterStateAndEmit replaces the state with next and emits output.
func EnterStateAndEmit[S, O any](next S, output O) *Action[S, O] {
	return &Action[S, O]{
		Name: "enterStateAndEmit",
		Apply: func(S) (S, *O) {
			return next, &output
		},
	}
}
