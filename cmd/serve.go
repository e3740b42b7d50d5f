package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tesarmarek/Legal-document-cleaner/config"
	"github.com/tesarmarek/Legal-document-cleaner/core/output"
	"github.com/tesarmarek/Legal-document-cleaner/logging"
	"github.com/tesarmarek/Legal-document-cleaner/metrics"
	"github.com/tesarmarek/Legal-document-cleaner/server"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve runs the HTTP API. Documents are uploaded to POST /api/documents and
kept in memory until deleted; Prometheus metrics are served on /metrics.

The config file is watched while serving: changes to log_level take effect
without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.Get()

	writer, err := output.New(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	srv := server.NewServer(newPipeline(cfg), writer, metrics.New(), logger, cfg.Server)

	cfgManager.OnChange(func(c *config.Config) {
		level, err := logging.ParseLevel(c.LogLevel)
		if err != nil {
			return
		}
		if level != logLevel.Level() {
			logLevel.Set(level)
			logger.Info("log level changed", "level", level.String())
		}
	})
	cfgManager.WatchConfig(func(err error) {
		logger.Warn("config reload rejected", "error", err)
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting htmlcleaner", "addr", cfg.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
