package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/cli"
	httpAdapter "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session inspection server",
	Long: `Serves the stored sessions over HTTP: snapshot trees as JSON, Mermaid graphs,
diffs, live change streams (SSE) and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		addr := env.cfg.Serve.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		watch, _ := cmd.Flags().GetDuration("watch")
		withDemo, _ := cmd.Flags().GetBool("demo")

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)

		mgr := env.backend.SessionManager(env.logger)
		server := httpAdapter.NewServer(mgr,
			httpAdapter.WithMetrics(reg),
			httpAdapter.WithVersion(canopy.Version),
			httpAdapter.WithLogger(env.logger),
		)

		srv := &http.Server{
			Addr:              addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx := cli.NewSignalContext(cmd.Context(), env.logger)
		defer sigCtx.Cancel()

		if watch > 0 {
			go server.Watch(sigCtx, watch)
		}
		if withDemo {
			go func() {
				hooks := observability.LogHooks(env.logger).Merge(metrics.Hooks())
				if err := runDemo(sigCtx, env, demoOptionsFrom(cmd), hooks, io.Discard); err != nil {
					env.logger.Error("demo pipeline failed", "err", err)
				}
			}()
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Canopy Server on %s (store: %s)\n", srv.Addr, env.cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\nStart shutdown... Signal: %v\n", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				env.logger.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("killing server: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Canopy Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides serve.addr)")
	serveCmd.Flags().Duration("watch", time.Second, "Poll interval for live session streams (0 disables)")
	serveCmd.Flags().Bool("demo", false, "Run the demo pipeline in-process while serving")
	addDemoFlags(serveCmd)
}
