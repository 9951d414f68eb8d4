package runner

import (
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"
)

// Option defines a functional option for configuring a Runner.
type Option func(*settings)

type settings struct {
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	store     ports.SnapshotStore
	sessions  *session.Manager
	sessionID string
	snapshot  *domain.Snapshot
}

// WithStore persists the session snapshot in store. Access is serialized through a
// session.Manager built on it.
func WithStore(store ports.SnapshotStore) Option {
	return func(s *settings) {
		s.store = store
	}
}

// WithSessionManager persists through an existing manager, e.g. one configured
// with a distributed locker. It takes precedence over WithStore.
func WithSessionManager(m *session.Manager) Option {
	return func(s *settings) {
		s.sessions = m
	}
}

// WithSessionID sets the session ID for persistence. If a store is configured
// without an ID, a random one is generated.
func WithSessionID(id string) Option {
	return func(s *settings) {
		s.sessionID = id
	}
}

// WithSnapshot restores the tree from snapshot instead of the stored session.
func WithSnapshot(snapshot *domain.Snapshot) Option {
	return func(s *settings) {
		s.snapshot = snapshot
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on the tree.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}
