// Package cli provides the recordlink command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/agenthands/recordlink/internal/config"
	"github.com/agenthands/recordlink/internal/core"
	"github.com/agenthands/recordlink/internal/core/dedupe"
	"github.com/agenthands/recordlink/internal/llm"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	configPath string
	verbose    bool

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "recordlink",
	Short: "Consolidate duplicate records into canonical groups",
	Long: `recordlink merges duplicate agents, editions and works.

It reads reviewed judgment sheets or clusters records with a trained
similarity model, then publishes a duplicate -> canonical mapping to a CSV
file, a SQLite table or Memgraph.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
			cfg = config.Default()
		case err != nil:
			return err
		}
		cfg.ApplyEnv()
		if verbose {
			cfg.Log.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, closeLog = config.SetupLogger(cfg.Log)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
	},
}

// newService builds the service. The LLM client is only created when the
// command needs a reviewer.
func newService(ctx context.Context, withReviewer bool) (*core.Service, error) {
	if !withReviewer {
		return core.NewService(cfg, nil, logger), nil
	}
	client, err := llm.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	reviewer, err := dedupe.NewReviewer(client, cfg.Review, logger)
	if err != nil {
		return nil, err
	}
	return core.NewService(cfg, reviewer, logger), nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.toml", "path to TOML config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(consolidateCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(reviewCmd)
}
