package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nvandessel/virusnet/internal/config"
	"github.com/nvandessel/virusnet/internal/logging"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "virusnet",
		Short: "Virus on a network - SIR epidemic simulation",
		Long: `virusnet simulates a virus spreading through a contact network.

Each agent is susceptible, infected or resistant. Every step, infected
agents try to infect their neighbors, then some check their situation and
may recover and gain resistance. The run reports the three counts and the
resistant/susceptible ratio after every step.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.virusnet/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: warn, info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newGraphCmd(),
		newRunsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration named by --config and applies
// --log-level. Command-specific flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.VirusnetConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// newLogger returns the operational logger. It writes to stderr so that
// stdout carries only command output.
func newLogger(cmd *cobra.Command, cfg *config.VirusnetConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// traceDir returns the configured trace directory, or ~/.virusnet/trace.
func traceDir(cfg *config.VirusnetConfig) (string, error) {
	if cfg.Logging.TraceDir != "" {
		return cfg.Logging.TraceDir, nil
	}
	home, err := config.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "trace"), nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
