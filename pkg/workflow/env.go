package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

// environment is shared by every node of one tree.
type environment struct {
	ctx    context.Context
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	wake   chan struct{}
}

func newEnvironment(ctx context.Context, logger *slog.Logger, hooks domain.LifecycleHooks) *environment {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &environment{
		ctx:    ctx,
		logger: logger,
		hooks:  hooks,
		wake:   make(chan struct{}, 1),
	}
}

// signal wakes the host without blocking. Pending wakeups coalesce.
func (e *environment) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *environment) base(t domain.EventType, path domain.Path) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Path: path.String()}
}

func (e *environment) emitNode(t domain.EventType, hook func(context.Context, *domain.NodeEvent), path domain.Path, id domain.Identity, restored bool) {
	if hook == nil {
		return
	}
	hook(e.ctx, &domain.NodeEvent{
		EventBase: e.base(t, path),
		Workflow:  id.Type,
		ID:        id,
		Restored:  restored,
	})
}
