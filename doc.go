/*
Package canopy runs hierarchical reactive workflows: trees of small state machines that
render values for a host, react to events and external signals, and can be captured as a
snapshot and restored later, even in another process.

# Concept

A workflow is a definition. Rendering it with an input produces a rendering (any value the
host wants, usually a struct of data and callbacks) plus a behavior: the handlers,
signal subscriptions, children and cleanups declared during that pass. A parent composes
children by rendering them under a (type, key) identity; children with the same identity
across passes keep their state, new ones start and undeclared ones are torn down.

Nothing mutates state directly. Handlers resolve the pass's single pending action, the
host applies it, and the tree renders again. Outputs of a child are mapped into actions of
its parent, so events bubble up one level at a time until the root emits to the host.

# Key Features

  - Composition by identity: children are matched across passes by type and key.
  - Resolve-once actions: the first event of a pass wins; later ones are ignored.
  - Signals: subscriptions live as long as consecutive passes keep declaring them.
  - Snapshots: the whole tree serializes to deterministic CBOR and restores by identity.
  - Pluggable persistence: memory, filesystem, Redis and cloud buckets.

# Usage

	w := workflow.FromStateful[string, int, string, Rendering]("counter", counter{})

	r, rendering, err := canopy.Launch(ctx, w, "clicks")
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	rendering.Increment()
	step, err := r.Next(ctx)

See pkg/workflow for the core API, pkg/runner for the host loop and pkg/session for
persisted sessions.
*/
package canopy
