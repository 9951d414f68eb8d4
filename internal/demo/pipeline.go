// Package demo holds the job pipeline run by `canopy demo`: a root workflow that
// renders one child per pending job, each advancing on a clock signal.
package demo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/workflow"
)

const (
	PipelineTag domain.TypeTag = "pipeline"
	JobTag      domain.TypeTag = "job"
)

// Plan is the pipeline input.
type Plan struct {
	Jobs  []string
	Steps int
}

// PipelineState is the root's private state.
type PipelineState struct {
	Pending  []string `cbor:"1,keyasint,omitempty"`
	Finished []string `cbor:"2,keyasint,omitempty"`
}

// Rendering is what the host sees after every pass.
type Rendering struct {
	Jobs     []JobRendering
	Finished []string
}

// Done reports whether no job is pending.
func (r Rendering) Done() bool {
	return len(r.Jobs) == 0
}

type JobInput struct {
	Name  string
	Steps int
}

type JobRendering struct {
	Name     string
	Progress int
	Steps    int
}

// Ticker is a clock source firing every interval.
func Ticker(interval time.Duration) workflow.Source[time.Time] {
	return workflow.Source[time.Time]{
		Type: "clock",
		Key:  interval.String(),
		Subscribe: func(ctx context.Context, emit func(time.Time)) {
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-t.C:
					emit(now)
				}
			}
		},
	}
}

// NewPipeline returns the root workflow. Jobs advance one step per clock tick.
func NewPipeline(interval time.Duration) workflow.Workflow[Plan, string, Rendering] {
	job := workflow.FromStateful[JobInput, int, string, JobRendering](JobTag, jobDef{clock: Ticker(interval)})
	return workflow.FromStateful[Plan, PipelineState, string, Rendering](PipelineTag, pipelineDef{job: job})
}

type pipelineDef struct {
	job workflow.Workflow[JobInput, string, JobRendering]
}

func (pipelineDef) InitialState(plan Plan, snapshot []byte) (PipelineState, error) {
	if snapshot == nil {
		return PipelineState{Pending: slices.Clone(plan.Jobs)}, nil
	}
	var s PipelineState
	err := domain.DecodeState(snapshot, &s)
	return s, err
}

func (pipelineDef) OnInputChanged(_, plan Plan, state PipelineState) PipelineState {
	// Jobs added to the plan are queued; finished ones are not rerun.
	for _, name := range plan.Jobs {
		if !slices.Contains(state.Pending, name) && !slices.Contains(state.Finished, name) {
			state.Pending = append(slices.Clone(state.Pending), name)
		}
	}
	return state
}

func (d pipelineDef) Render(plan Plan, state PipelineState, ctx *workflow.RenderContext[PipelineState, string]) Rendering {
	r := Rendering{Finished: state.Finished}
	for _, name := range state.Pending {
		jr := workflow.RenderChild(ctx, d.job, JobInput{Name: name, Steps: plan.Steps}, name, func(string) *domain.Action[PipelineState, string] {
			return finish(name)
		})
		r.Jobs = append(r.Jobs, jr)
	}
	return r
}

func (pipelineDef) SnapshotState(state PipelineState) ([]byte, error) {
	return domain.EncodeState(state)
}

func finish(name string) *domain.Action[PipelineState, string] {
	return domain.NewAction("finish", func(s PipelineState) (PipelineState, *string) {
		next := PipelineState{
			Pending:  slices.DeleteFunc(slices.Clone(s.Pending), func(p string) bool { return p == name }),
			Finished: append(slices.Clone(s.Finished), name),
		}
		out := fmt.Sprintf("finished %s (%d/%d)", name, len(next.Finished), len(next.Finished)+len(next.Pending))
		return next, &out
	})
}

type jobDef struct {
	clock workflow.Source[time.Time]
}

func (jobDef) InitialState(_ JobInput, snapshot []byte) (int, error) {
	if snapshot == nil {
		return 0, nil
	}
	var n int
	err := domain.DecodeState(snapshot, &n)
	return n, err
}

func (jobDef) OnInputChanged(_, _ JobInput, progress int) int { return progress }

func (d jobDef) Render(in JobInput, progress int, ctx *workflow.RenderContext[int, string]) JobRendering {
	workflow.OnReceive(ctx, d.clock, func(time.Time) *domain.Action[int, string] {
		return domain.NewAction("advance", func(n int) (int, *string) {
			n++
			if n >= in.Steps {
				return n, &in.Name
			}
			return n, nil
		})
	})
	return JobRendering{Name: in.Name, Progress: progress, Steps: in.Steps}
}

func (jobDef) SnapshotState(progress int) ([]byte, error) {
	return domain.EncodeState(progress)
}
