package canopy

import (
	"context"

	"github.com/aretw0/canopy/pkg/runner"
	"github.com/aretw0/canopy/pkg/workflow"
)

// Version is the current release.
const Version = "0.1.0"

// Launch creates a runner for w, starts it with input and returns it together with the
// first rendering. With a store or session manager among opts, a stored session is
// resumed and every step is persisted.
func Launch[I, O, R any](ctx context.Context, w workflow.Workflow[I, O, R], input I, opts ...runner.Option) (*runner.Runner[I, O, R], R, error) {
	r := runner.New(w, opts...)
	rendering, err := r.Start(ctx, input)
	if err != nil {
		r.Close()
		var zero R
		return nil, zero, err
	}
	return r, rendering, nil
}
