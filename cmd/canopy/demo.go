package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/demo"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/runner"
	"github.com/spf13/cobra"
)

type demoOptions struct {
	session  string
	jobs     []string
	steps    int
	interval time.Duration
	fresh    bool
}

func demoOptionsFrom(cmd *cobra.Command) demoOptions {
	o := demoOptions{}
	o.session, _ = cmd.Flags().GetString("session")
	o.jobs, _ = cmd.Flags().GetStringSlice("jobs")
	o.steps, _ = cmd.Flags().GetInt("steps")
	o.interval, _ = cmd.Flags().GetDuration("interval")
	o.fresh, _ = cmd.Flags().GetBool("fresh")
	return o
}

func addDemoFlags(cmd *cobra.Command) {
	cmd.Flags().String("session", "demo", "Session ID the pipeline is persisted under")
	cmd.Flags().StringSlice("jobs", []string{"build", "lint", "test"}, "Jobs to run")
	cmd.Flags().Int("steps", 5, "Clock ticks each job needs")
	cmd.Flags().Duration("interval", 500*time.Millisecond, "Clock interval")
	cmd.Flags().Bool("fresh", false, "Discard a stored session instead of resuming it")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the job pipeline demo",
	Long: `Runs a pipeline whose jobs are child workflows advancing on a clock. Every step is
persisted, so an interrupted run resumes from the stored session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		sigCtx := cli.NewSignalContext(cmd.Context(), env.logger)
		defer sigCtx.Cancel()

		out := cmd.OutOrStdout()
		tui.PrintBanner(out)
		return runDemo(sigCtx, env, demoOptionsFrom(cmd), observability.LogHooks(env.logger), out)
	},
}

func runDemo(ctx context.Context, env *environment, o demoOptions, hooks domain.LifecycleHooks, out io.Writer) error {
	if o.steps < 1 || o.interval <= 0 || len(o.jobs) == 0 {
		return errors.New("demo needs at least one job, one step and a positive interval")
	}
	mgr := env.backend.SessionManager(env.logger)
	if o.fresh {
		if err := mgr.Delete(ctx, o.session); err != nil {
			return err
		}
	}

	r, rendering, err := canopy.Launch(ctx, demo.NewPipeline(o.interval), demo.Plan{Jobs: o.jobs, Steps: o.steps},
		runner.WithSessionManager(mgr),
		runner.WithSessionID(o.session),
		runner.WithLogger(env.logger),
		runner.WithLifecycleHooks(hooks),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	if rendering.Done() {
		fmt.Fprintf(out, "Session '%s' already finished: %s\n", o.session, strings.Join(rendering.Finished, ", "))
		return nil
	}
	printProgress(out, rendering)

	err = r.Run(ctx, func(msg string) error {
		fmt.Fprintln(out, msg)
		if r.Rendering().Done() {
			return runner.ErrStop
		}
		printProgress(out, r.Rendering())
		return nil
	})
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(out, "Interrupted. Run again with --session %s to resume.\n", o.session)
		return nil
	}
	return err
}

func printProgress(out io.Writer, r demo.Rendering) {
	parts := make([]string, 0, len(r.Jobs))
	for _, j := range r.Jobs {
		parts = append(parts, fmt.Sprintf("%s %d/%d", j.Name, j.Progress, j.Steps))
	}
	fmt.Fprintf(out, "  running: %s\n", strings.Join(parts, ", "))
}

func init() {
	rootCmd.AddCommand(demoCmd)
	addDemoFlags(demoCmd)
}
