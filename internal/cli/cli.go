package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sheridangray/family-event-planner/internal/config"
	"github.com/sheridangray/family-event-planner/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagDataDir string
	flagAuditDB string
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "family-events",
		Short: "Merge family event listings from many sources into one list",
		Long: `A CLI tool that collects family-friendly event listings, detects listings
of the same real-world event across sources, and merges them into one
enriched record. Canonical events are kept between runs so repeat listings
are recognized.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory for snapshots (overrides config)")
	cmd.PersistentFlags().StringVar(&flagAuditDB, "audit-db", "", "SQLite merge audit database (overrides config)")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output and debug logging")

	cmd.AddCommand(newDedupeCmd(), newFetchCmd(), newAuditCmd())

	return cmd
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagAuditDB != "" {
		cfg.Audit.SQLitePath = flagAuditDB
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	logger.SetDefault(logger.New(logger.ParseLevel(cfg.Logging.Level), cmd.ErrOrStderr()))
	return cfg, nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
