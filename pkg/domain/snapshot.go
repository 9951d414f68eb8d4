package domain

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// SnapshotVersion is the envelope version written by Encode.
const SnapshotVersion = 1

// Snapshot is a nested capture of one workflow's local state plus the snapshots of
// its live children, in composition order.
type Snapshot struct {
	// State is the workflow's own serialized state. It is opaque to the runtime.
	State []byte `json:"state,omitempty" cbor:"1,keyasint,omitempty"`

	// Children holds the snapshots of the children that were live at capture time.
	Children []ChildSnapshot `json:"children,omitempty" cbor:"2,keyasint,omitempty"`
}

// ChildSnapshot pairs a child Identity with its snapshot.
type ChildSnapshot struct {
	ID       Identity  `json:"id" cbor:"1,keyasint"`
	Snapshot *Snapshot `json:"snapshot" cbor:"2,keyasint"`
}

type envelope struct {
	Version uint      `cbor:"1,keyasint"`
	Root    *Snapshot `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding sorts map keys, so equal trees encode to equal bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("domain: cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 256,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("domain: cbor decoder: %v", err))
	}
}

// Encode serializes the snapshot tree into a self-describing byte payload.
// Encoding is deterministic.
func (s *Snapshot) Encode() ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode snapshot: %w", ErrMalformedSnapshot)
	}
	data, err := encMode.Marshal(envelope{Version: SnapshotVersion, Root: s})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// ParseSnapshot decodes a payload produced by Encode.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload: %w", ErrMalformedSnapshot)
	}
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if env.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, env.Version)
	}
	if env.Root == nil {
		return nil, fmt.Errorf("%w: missing root", ErrMalformedSnapshot)
	}
	return env.Root, nil
}

// Child returns the snapshot captured for id, or nil.
func (s *Snapshot) Child(id Identity) *Snapshot {
	if s == nil {
		return nil
	}
	for _, c := range s.Children {
		if c.ID == id {
			return c.Snapshot
		}
	}
	return nil
}

// Lookup follows path from s and returns the snapshot at its end, or nil.
func (s *Snapshot) Lookup(path Path) *Snapshot {
	cur := s
	for _, id := range path {
		cur = cur.Child(id)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Walk visits s and its descendants depth-first, in composition order.
// Returning an error stops the walk.
func (s *Snapshot) Walk(fn func(path Path, node *Snapshot) error) error {
	return s.walk(nil, fn)
}

func (s *Snapshot) walk(path Path, fn func(Path, *Snapshot) error) error {
	if s == nil {
		return nil
	}
	if err := fn(path, s); err != nil {
		return err
	}
	for _, c := range s.Children {
		if err := c.Snapshot.walk(path.Child(c.ID), fn); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two trees have the same shape and the same local bytes at every node.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	if !bytes.Equal(s.State, other.State) || len(s.Children) != len(other.Children) {
		return false
	}
	for i := range s.Children {
		if s.Children[i].ID != other.Children[i].ID {
			return false
		}
		if !s.Children[i].Snapshot.Equal(other.Children[i].Snapshot) {
			return false
		}
	}
	return true
}

// EncodeState serializes a workflow state value with the same deterministic CBOR
// encoding used for snapshot envelopes.
func EncodeState(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// DecodeState is the inverse of EncodeState. Malformed bytes yield ErrMalformedSnapshot.
func DecodeState(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("decode state: %w", ErrMalformedSnapshot)
	}
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return nil
}
