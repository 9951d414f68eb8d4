// Package workflow implements hierarchical reactive workflows.
//
// A workflow is a unit that, given an input and its private state, produces a
// rendering and declares what may happen next: event handlers, signal
// subscriptions and child workflows. Each render pass is recorded by a
// RenderContext and frozen into a Behavior whose pending slot is resolved by
// whichever event or signal fires first.
//
// A Tree hosts a root workflow. It reconciles children across passes by Identity,
// applies one resolved action per Tick, routes child outputs up through the
// parent's handlers, and captures the whole tree as a domain.Snapshot that a new
// Tree can be restored from.
//
//	tree := workflow.NewTree(root, workflow.WithLogger(logger))
//	rendering, err := tree.Start(input, nil)
//	...
//	<-tree.Wake()
//	output, applied, err := tree.Tick()
package workflow
