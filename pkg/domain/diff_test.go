package domain_test

import (
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestDiffSnapshots_Identical(t *testing.T) {
	diff := domain.DiffSnapshots(sampleTree(), sampleTree())
	assert.True(t, diff.IsEmpty())
}

func TestDiffSnapshots_InitialLoad(t *testing.T) {
	diff := domain.DiffSnapshots(nil, sampleTree())
	assert.Len(t, diff.Changes, 4)
	for _, c := range diff.Changes {
		assert.Equal(t, domain.ChangeAdded, c.Kind)
	}
}

func TestDiffSnapshots_Changes(t *testing.T) {
	old := sampleTree()
	updated := sampleTree()
	updated.Children[0].Snapshot.Children[0].Snapshot.State = []byte("new leaf data")
	updated.Children = updated.Children[:1]
	updated.Children = append(updated.Children, domain.ChildSnapshot{
		ID:       domain.NewIdentity("tree", "middle3"),
		Snapshot: &domain.Snapshot{State: []byte("middle3")},
	})

	diff := domain.DiffSnapshots(old, updated)
	assert.Equal(t, []domain.NodeChange{
		{Path: "/tree#middle1/tree#leaf1", Kind: domain.ChangeModified},
		{Path: "/tree#middle3", Kind: domain.ChangeAdded},
		{Path: "/tree#middle2", Kind: domain.ChangeRemoved},
	}, diff.Changes)
}
