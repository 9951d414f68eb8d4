package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LogHooks returns lifecycle hooks that log child lifecycle, applied actions and
// snapshots. Render passes are logged at Debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "render", "path", e.Path, "workflow", string(e.Workflow))
		},
		OnChildStarted: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "child_started", "path", e.Path, "id", e.ID.String(), "restored", e.Restored)
		},
		OnChildStopped: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "child_stopped", "path", e.Path, "id", e.ID.String())
		},
		OnActionApplied: func(ctx context.Context, e *domain.ActionEvent) {
			logger.InfoContext(ctx, "action_applied", "path", e.Path, "action", e.Action, "emitted", e.Emitted)
		},
		OnSnapshot: func(ctx context.Context, e *domain.SnapshotEvent) {
			logger.DebugContext(ctx, "snapshot", "nodes", e.Nodes)
		},
		OnRestoreFailed: func(ctx context.Context, e *domain.RestoreEvent) {
			logger.WarnContext(ctx, "restore_failed", "path", e.Path, "workflow", string(e.Workflow), "err", e.Err)
		},
	}
}
