package main

import (
	"os"

	"github.com/aretw0/fluxgraph/internal/cli"
	"github.com/aretw0/fluxgraph/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "fluxgraph",
	Short:         "fluxgraph edits dataflow workflow projects",
	Long:          `fluxgraph is the state engine of a visual workflow builder: modules connected by slots, nested layers, undo/redo.`,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the projects")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringSlice("factories", nil, "HCL factory catalog files or directories")
	rootCmd.PersistentFlags().String("store", "", "Project store: file, memory, redis or sqlite")
}

// loadApp builds the app from the config file, overridden by the flags the user set.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("dir") {
		cfg.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("factories") {
		cfg.Factories, _ = flags.GetStringSlice("factories")
	}
	if flags.Changed("store") {
		cfg.Store.Kind, _ = flags.GetString("store")
	}

	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cmd.Context(), cfg, logger)
}
