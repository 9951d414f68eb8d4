package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy runs and inspects hierarchical reactive workflows",
	Long: `Canopy manages persisted workflow sessions: list, inspect, diff and graph their
snapshot trees, serve them over HTTP, or run the demo pipeline.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":  "log_level",
	"store":      "store.backend",
	"store-dir":  "store.dir",
	"redis-addr": "store.redis.addr",
	"blob-url":   "store.blob.url",
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default: canopy.yaml, canopy.yml or canopy.toml in the current directory)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "Session store backend: memory, file, redis, blob")
	rootCmd.PersistentFlags().String("store-dir", "", "Directory of the file store")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the redis store")
	rootCmd.PersistentFlags().String("blob-url", "", "Bucket URL for the blob store (s3://, gs://, azblob://, file://, mem://)")
}

// loadConfig merges the configuration file with the flags set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.Discover(".")
	}
	overrides := map[string]any{}
	for flag, key := range flagKeys {
		if cmd.Flags().Changed(flag) {
			value, _ := cmd.Flags().GetString(flag)
			overrides[key] = value
		}
	}
	return config.Load(path, overrides)
}

// environment is what every session command needs.
type environment struct {
	cfg     config.Config
	logger  *slog.Logger
	backend *cli.Backend
}

func setup(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	backend, err := cli.OpenBackend(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "backend", cfg.Store.Backend)
	return &environment{cfg: cfg, logger: logger, backend: backend}, nil
}

func (e *environment) Close() {
	if err := e.backend.Close(); err != nil {
		e.logger.Warn("closing store failed", "err", err)
	}
}
