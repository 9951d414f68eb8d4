package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
	Long:  `List, inspect, compare and remove the workflow snapshots held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		sessions, err := env.backend.SessionManager(env.logger).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show the snapshot tree of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		sessionID := args[0]
		snap, err := env.backend.SessionManager(env.logger).Load(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", sessionID, err)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		render := tui.RendererFor(out)
		text, err := render(tui.SnapshotReport("Session "+sessionID, snap))
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id]...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("requires at least one session id, or --all")
		}

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		mgr := env.backend.SessionManager(env.logger)
		if all {
			if args, err = mgr.List(cmd.Context()); err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, sessionID := range args {
			if err := mgr.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		if failed > 0 {
			return fmt.Errorf("%d session(s) could not be removed", failed)
		}
		return nil
	},
}

var sessionGraphCmd = &cobra.Command{
	Use:   "graph <session-id>",
	Short: "Export the snapshot tree as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		mgr := env.backend.SessionManager(env.logger)
		snap, err := mgr.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", args[0], err)
		}

		var overlay *graph.GraphOverlay
		if against, _ := cmd.Flags().GetString("against"); against != "" {
			base, err := mgr.Load(cmd.Context(), against)
			if err != nil {
				return fmt.Errorf("loading session '%s': %w", against, err)
			}
			overlay = graph.OverlayFromDiff(domain.DiffSnapshots(base, snap))
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(snap, overlay))
		return nil
	},
}

var sessionDiffCmd = &cobra.Command{
	Use:   "diff <old-session-id> <new-session-id>",
	Short: "Compare the snapshot trees of two sessions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		mgr := env.backend.SessionManager(env.logger)
		old, err := mgr.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", args[0], err)
		}
		snap, err := mgr.Load(cmd.Context(), args[1])
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", args[1], err)
		}
		tui.PrintDiff(cmd.OutOrStdout(), domain.DiffSnapshots(old, snap))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionGraphCmd)
	sessionCmd.AddCommand(sessionDiffCmd)

	sessionInspectCmd.Flags().Bool("json", false, "Print the snapshot tree as JSON")
	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
	sessionGraphCmd.Flags().String("against", "", "Highlight nodes that differ from this session")
}
