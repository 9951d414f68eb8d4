package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/canopy/internal/logging"
)

// ErrInterrupted is the cancellation cause recorded when a shutdown signal arrives.
var ErrInterrupted = errors.New("interrupted")

// SignalContext is a context cancelled on SIGINT or SIGTERM. The signal becomes the
// context's cause, so commands can tell an interrupt from a plain cancellation.
type SignalContext struct {
	context.Context
	cancel context.CancelCauseFunc

	mu  sync.Mutex
	sig os.Signal
}

// NewSignalContext starts listening for shutdown signals until the returned context ends.
func NewSignalContext(parent context.Context, logger *slog.Logger) *SignalContext {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancelCause(parent)
	sc := &SignalContext{Context: ctx, cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.mu.Lock()
			sc.sig = sig
			sc.mu.Unlock()
			logger.Info("shutdown signal received", "signal", sig.String())
			cancel(fmt.Errorf("%w by %s", ErrInterrupted, sig))
		case <-ctx.Done():
		}
	}()
	return sc
}

// Cancel ends the context without recording a signal.
func (sc *SignalContext) Cancel() {
	sc.cancel(context.Canceled)
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sig
}

// Interrupted reports whether a signal, rather than the parent or Cancel, ended the context.
func (sc *SignalContext) Interrupted() bool {
	return errors.Is(context.Cause(sc), ErrInterrupted)
}
