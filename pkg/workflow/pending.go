package workflow

import (
	"sync/atomic"

	"github.com/aretw0/canopy/pkg/domain"
)

// Pending is the single-assignment slot holding the next action of one render pass.
// The first Resolve wins; later attempts are ignored.
type Pending[S, O any] struct {
	action atomic.Pointer[domain.Action[S, O]]
	done   chan struct{}
	notify func()
}

func newPending[S, O any](notify func()) *Pending[S, O] {
	return &Pending[S, O]{
		done:   make(chan struct{}),
		notify: notify,
	}
}

// Resolve completes the slot with action. It reports whether this call won.
// A nil action resolves to a noop.
func (p *Pending[S, O]) Resolve(action *domain.Action[S, O]) bool {
	if action == nil {
		action = domain.Noop[S, O]()
	}
	if !p.action.CompareAndSwap(nil, action) {
		return false
	}
	close(p.done)
	if p.notify != nil {
		p.notify()
	}
	return true
}

// Resolved returns the winning action, if any.
func (p *Pending[S, O]) Resolved() (*domain.Action[S, O], bool) {
	a := p.action.Load()
	return a, a != nil
}

// IsResolved reports whether the slot has been completed.
func (p *Pending[S, O]) IsResolved() bool {
	return p.action.Load() != nil
}

// Done is closed when the slot is resolved.
func (p *Pending[S, O]) Done() <-chan struct{} {
	return p.done
}
