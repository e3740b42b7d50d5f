// Package cmd implements the CLI commands for htmlcleaner using Cobra.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tesarmarek/Legal-document-cleaner/config"
	"github.com/tesarmarek/Legal-document-cleaner/core/fetch"
	"github.com/tesarmarek/Legal-document-cleaner/core/pipeline"
	"github.com/tesarmarek/Legal-document-cleaner/core/transform"
	"github.com/tesarmarek/Legal-document-cleaner/logging"
)

// Persistent flag variables.
var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagOutputDir string
)

// Set up by PersistentPreRunE for every command.
var (
	cfgManager *config.Manager
	logger     *slog.Logger
	logLevel   *slog.LevelVar
)

var rootCmd = &cobra.Command{
	Use:   "htmlcleaner",
	Short: "htmlcleaner — analyze and restructure HTML documents",
	Long: `htmlcleaner analyzes the structure of an HTML document (sections, headers,
numbered lists, paragraphs), re-levels chosen headers, strips inline styling,
keeps paragraph numbering and writes the result as HTML, JSON, Markdown or PDF.

Usage:
  htmlcleaner analyze <file|url>
  htmlcleaner transform <file|url> --header 2 --level 2=3
  htmlcleaner serve`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default: ./htmlcleaner.yaml, then $HOME/.htmlcleaner/htmlcleaner.yaml)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&flagLogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

// setup loads the config and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	cm, err := config.NewManager(flagConfig, cmd.Flags())
	if err != nil {
		return err
	}
	cfg := cm.Get()

	l, lv, err := logging.BuildLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(l)

	cfgManager, logger, logLevel = cm, l, lv
	if used := cm.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}
	return nil
}

// newPipeline builds a pipeline from the loaded config.
func newPipeline(cfg *config.Config) *pipeline.Pipeline {
	loader := fetch.NewAutoLoader(fetch.Options{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		Attempts:  cfg.Fetch.Attempts,
		Delay:     cfg.Fetch.Delay,
		Logger:    logger,
	})
	return pipeline.New(loader, logger,
		transform.WithDefaultTitle(cfg.DefaultTitle),
		transform.WithStructureVersion(cfg.StructureVersion),
	)
}

// Execute runs the root command.
func Execute() {
	ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which commands pass on
// to loading and serving.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
