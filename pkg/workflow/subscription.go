package workflow

import (
	"context"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// heldValue is a delivered value whose action has not been applied yet.
// action is the action currently offered for it, nil while no slot holds it.
type heldValue[S, O any] struct {
	value  any
	action *domain.Action[S, O]
}

// liveSubscription is a running signal source. Each render pass that re-declares
// it rebinds it to that pass's pending slot.
//
// A delivered value stays held until its owning node applies the action made
// from it. A pass that discards the slot unapplied gets the value offered again.
type liveSubscription[S, O any] struct {
	mu       sync.Mutex
	pending  *Pending[S, O]
	toAction func(any) *domain.Action[S, O]
	held     *heldValue[S, O]
	rebound  chan struct{}
	cancel   context.CancelFunc
}

func startSubscription[S, O any](parent context.Context, sub *Subscription[S, O], pending *Pending[S, O]) *liveSubscription[S, O] {
	ctx, cancel := context.WithCancel(parent)
	live := &liveSubscription[S, O]{
		pending:  pending,
		toAction: sub.toAction,
		rebound:  make(chan struct{}),
		cancel:   cancel,
	}
	go sub.subscribe(ctx, func(value any) {
		live.deliver(ctx, value)
	})
	return live
}

func (l *liveSubscription[S, O]) bind(pending *Pending[S, O], toAction func(any) *domain.Action[S, O]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = pending
	l.toAction = toAction
	if l.held != nil {
		l.held.action = nil
		if pending != nil {
			l.held.action = l.offerLocked(l.held.value)
		}
	}
	close(l.rebound)
	l.rebound = make(chan struct{})
}

// offerLocked resolves the current slot with the action for value and returns
// that action, or nil when the slot was already taken.
func (l *liveSubscription[S, O]) offerLocked(value any) *domain.Action[S, O] {
	if l.pending.IsResolved() || !l.pending.Resolve(l.toAction(value)) {
		return nil
	}
	action, _ := l.pending.Resolved()
	return action
}

// deliver resolves the current pending slot with value. The source is held while
// an earlier value is still unapplied or the slot is taken, and retried on the
// next rebind, so values are neither lost nor reordered.
func (l *liveSubscription[S, O]) deliver(ctx context.Context, value any) {
	for {
		l.mu.Lock()
		if l.pending == nil {
			l.mu.Unlock()
			return
		}
		if l.held == nil {
			if action := l.offerLocked(value); action != nil {
				l.held = &heldValue[S, O]{value: value, action: action}
				l.mu.Unlock()
				return
			}
		}
		rebound := l.rebound
		l.mu.Unlock()

		select {
		case <-rebound:
		case <-ctx.Done():
			return
		}
	}
}

// applied releases the held value once the node has applied its action.
func (l *liveSubscription[S, O]) applied(action *domain.Action[S, O]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held != nil && l.held.action == action {
		l.held = nil
	}
}

// stop cancels the source and detaches it so late deliveries are dropped.
func (l *liveSubscription[S, O]) stop() {
	l.cancel()
	l.mu.Lock()
	l.held = nil
	l.mu.Unlock()
	l.bind(nil, nil)
}
