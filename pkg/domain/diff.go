package domain

import "bytes"

// ChangeKind classifies one entry of a SnapshotDiff.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// NodeChange is one node that differs between two snapshots.
type NodeChange struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
}

// SnapshotDiff lists the nodes that differ between two snapshot trees.
// It is designed to be serialized to JSON for inspection tools.
type SnapshotDiff struct {
	Changes []NodeChange `json:"changes,omitempty"`
}

// IsEmpty checks if the diff contains any changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d == nil || len(d.Changes) == 0
}

// DiffSnapshots compares old and new node by node, matching children by Identity.
// If old is nil, every node of new is reported as added.
func DiffSnapshots(old, new *Snapshot) *SnapshotDiff {
	diff := &SnapshotDiff{}
	diffNode(diff, nil, old, new)
	return diff
}

func diffNode(diff *SnapshotDiff, path Path, old, new *Snapshot) {
	switch {
	case old == nil && new == nil:
		return
	case old == nil:
		_ = new.walk(path, func(p Path, _ *Snapshot) error {
			diff.Changes = append(diff.Changes, NodeChange{Path: p.String(), Kind: ChangeAdded})
			return nil
		})
		return
	case new == nil:
		_ = old.walk(path, func(p Path, _ *Snapshot) error {
			diff.Changes = append(diff.Changes, NodeChange{Path: p.String(), Kind: ChangeRemoved})
			return nil
		})
		return
	}

	if !bytes.Equal(old.State, new.State) {
		diff.Changes = append(diff.Changes, NodeChange{Path: path.String(), Kind: ChangeModified})
	}

	// Children present in new (added or compared), in new's order
	for _, c := range new.Children {
		diffNode(diff, path.Child(c.ID), old.Child(c.ID), c.Snapshot)
	}
	// Children only in old
	for _, c := range old.Children {
		if new.Child(c.ID) == nil {
			diffNode(diff, path.Child(c.ID), c.Snapshot, nil)
		}
	}
}
