/*
Package runner implements the host loop that drives a workflow tree.

A Runner owns one workflow.Tree. It waits for any pending action in the tree to
resolve, applies it, re-renders, hands root outputs to the caller and, when
configured with a store, persists the root snapshot of the session after every
change so the tree can be resumed later.

# Usage

	r := runner.New(root,
		runner.WithStore(store),
		runner.WithSessionID("user-1"),
		runner.WithLogger(logger),
	)
	defer r.Close()

	rendering, err := r.Start(ctx, input)
	...
	err = r.Run(ctx, func(out Output) error {
		// react to root outputs; return runner.ErrStop to finish
		return nil
	})
*/
package runner
