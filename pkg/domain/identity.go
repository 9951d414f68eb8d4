package domain

import "strings"

// TypeTag names the type of a workflow definition.
// Two definitions with the same tag are treated as the same type when matching children.
type TypeTag string

// Identity uniquely names a child workflow instance within one parent.
type Identity struct {
	Type TypeTag `json:"type" cbor:"1,keyasint"`
	Key  string  `json:"key,omitempty" cbor:"2,keyasint,omitempty"`
}

// NewIdentity creates an Identity for a child of the given type and key.
func NewIdentity(tag TypeTag, key string) Identity {
	return Identity{Type: tag, Key: key}
}

// String renders the identity as "type" or "type#key".
func (id Identity) String() string {
	if id.Key == "" {
		return string(id.Type)
	}
	return string(id.Type) + "#" + id.Key
}

// Path is the chain of identities from the root of a tree to one node.
type Path []Identity

// Child returns a new path extended with id.
func (p Path) Child(id Identity) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = id
	return next
}

// String renders the path with "/" separators. The root path is "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, id := range p {
		parts[i] = id.String()
	}
	return "/" + strings.Join(parts, "/")
}
