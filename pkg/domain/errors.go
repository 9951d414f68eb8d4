package domain

import (
	"errors"
	"fmt"
)

// ErrContextSealed is raised when a render context is used after Build.
var ErrContextSealed = errors.New("render context already sealed")

// ErrDuplicateIdentity is raised when one render pass declares two children with the same Identity.
var ErrDuplicateIdentity = errors.New("duplicate child identity in render pass")

// ErrDuplicateSubscription is raised when one render pass declares the same signal source twice.
var ErrDuplicateSubscription = errors.New("duplicate signal subscription in render pass")

// ErrWorkflowMismatch is raised when two workflow definitions with different Go types
// share a TypeTag, so a child continued by Identity does not match its declaration.
var ErrWorkflowMismatch = errors.New("workflow type does not match its identity")

// ErrNilRenderer is raised when a render context is created without a renderer.
var ErrNilRenderer = errors.New("render context needs a renderer")

// ErrMalformedSnapshot is returned when snapshot bytes cannot be decoded.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// ErrTreeClosed is returned when a torn down tree is used.
var ErrTreeClosed = errors.New("workflow tree closed")

// ErrNotStarted is returned when a tree is used before Start.
var ErrNotStarted = errors.New("workflow tree not started")

// ErrAlreadyStarted is returned when Start is called twice on one tree.
var ErrAlreadyStarted = errors.New("workflow tree already started")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ContractError reports a violation of the render contract: an authoring bug in a
// workflow definition. It is raised as a panic inside render and converted to an
// error at the tree boundary.
type ContractError struct {
	Op  string
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// Violation builds a ContractError for op.
func Violation(op string, err error) *ContractError {
	return &ContractError{Op: op, Err: err}
}
