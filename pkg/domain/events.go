package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRender        EventType = "render"
	EventChildStarted  EventType = "child_started"
	EventChildStopped  EventType = "child_stopped"
	EventActionApplied EventType = "action_applied"
	EventSnapshot      EventType = "snapshot"
	EventRestoreFailed EventType = "restore_failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Path      string    `json:"path"`
}

// NodeEvent describes a render pass or a child entering/leaving the tree.
type NodeEvent struct {
	EventBase
	Workflow TypeTag  `json:"workflow"`
	ID       Identity `json:"id"`
	Restored bool     `json:"restored,omitempty"`
}

// ActionEvent describes an applied action.
type ActionEvent struct {
	EventBase
	Workflow TypeTag `json:"workflow"`
	Action   string  `json:"action"`
	Emitted  bool    `json:"emitted,omitempty"`
}

// SnapshotEvent describes a captured snapshot.
type SnapshotEvent struct {
	EventBase
	Nodes int `json:"nodes"`
}

// RestoreEvent describes a node that could not be restored from its snapshot.
type RestoreEvent struct {
	EventBase
	Workflow TypeTag `json:"workflow"`
	Err      error   `json:"-"`
}

// LifecycleHooks defines callbacks for tree observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnRender        func(context.Context, *NodeEvent)
	OnChildStarted  func(context.Context, *NodeEvent)
	OnChildStopped  func(context.Context, *NodeEvent)
	OnActionApplied func(context.Context, *ActionEvent)
	OnSnapshot      func(context.Context, *SnapshotEvent)
	OnRestoreFailed func(context.Context, *RestoreEvent)
}

// Merge returns hooks that call h and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRender:        chain(h.OnRender, other.OnRender),
		OnChildStarted:  chain(h.OnChildStarted, other.OnChildStarted),
		OnChildStopped:  chain(h.OnChildStopped, other.OnChildStopped),
		OnActionApplied: chain(h.OnActionApplied, other.OnActionApplied),
		OnSnapshot:      chain(h.OnSnapshot, other.OnSnapshot),
		OnRestoreFailed: chain(h.OnRestoreFailed, other.OnRestoreFailed),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
