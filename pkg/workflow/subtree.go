package workflow

import (
	"github.com/aretw0/canopy/pkg/domain"
)

type childSlot[S, O any] struct {
	node treeNode
	comp *Composition[S, O]
}

// subtree reconciles the children declared by successive render passes of one
// node, matching them by Identity. It implements Renderer for that node.
type subtree[S, O any] struct {
	path    domain.Path
	env     *environment
	restore *domain.Snapshot

	live  []*childSlot[S, O]
	next  []*childSlot[S, O]
	index map[domain.Identity]*childSlot[S, O]
}

func newSubtree[S, O any](path domain.Path, restore *domain.Snapshot, env *environment) *subtree[S, O] {
	return &subtree[S, O]{path: path, env: env, restore: restore}
}

// begin opens a pass: every live child is a teardown candidate until re-declared.
func (t *subtree[S, O]) begin() {
	t.next = make([]*childSlot[S, O], 0, len(t.live))
	t.index = make(map[domain.Identity]*childSlot[S, O], len(t.live))
	for _, slot := range t.live {
		t.index[slot.comp.ID] = slot
	}
}

// Render continues the live child with c's Identity, or starts one, and renders it.
func (t *subtree[S, O]) Render(c *Composition[S, O]) any {
	slot, ok := t.index[c.ID]
	if ok {
		delete(t.index, c.ID)
	} else {
		snap := t.restore.Child(c.ID)
		childPath := t.path.Child(c.ID)
		slot = &childSlot[S, O]{node: c.start(childPath, snap, t.env)}

		t.env.logger.Info("child workflow started",
			"path", childPath.String(),
			"restored", snap != nil,
		)
		t.env.emitNode(domain.EventChildStarted, t.env.hooks.OnChildStarted, childPath, c.ID, snap != nil)
	}
	slot.comp = c
	t.next = append(t.next, slot)
	return slot.node.renderAny(c.Input)
}

// commit closes a pass: children that were not re-declared are torn down, and
// snapshots not claimed by this pass are dropped.
func (t *subtree[S, O]) commit() {
	for _, slot := range t.live {
		if _, stale := t.index[slot.comp.ID]; stale {
			t.stop(slot)
		}
	}
	t.live, t.next, t.index = t.next, nil, nil
	t.restore = nil
}

func (t *subtree[S, O]) teardownAll() {
	seen := make(map[*childSlot[S, O]]struct{}, len(t.live)+len(t.next))
	for _, group := range [][]*childSlot[S, O]{t.next, t.live} {
		for _, slot := range group {
			if _, done := seen[slot]; done {
				continue
			}
			seen[slot] = struct{}{}
			t.stop(slot)
		}
	}
	t.live, t.next, t.index = nil, nil, nil
}

func (t *subtree[S, O]) stop(slot *childSlot[S, O]) {
	slot.node.teardown()
	childPath := t.path.Child(slot.comp.ID)
	t.env.logger.Info("child workflow stopped", "path", childPath.String())
	t.env.emitNode(domain.EventChildStopped, t.env.hooks.OnChildStopped, childPath, slot.comp.ID, false)
}
