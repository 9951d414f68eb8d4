package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// SnapshotStore persists the root snapshot of a workflow tree per session.
// This allows a host to stop a tree and restore it later, possibly in another process.
type SnapshotStore interface {
	// Save persists the snapshot for a given session ID, replacing any previous one.
	Save(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
