// chrunner is the ingestion runner CLI: it executes rendered SQL files
// against the destination store and runs the ingestor variants (tabular SQL
// templates, object-store files, remote file download, remote query
// execution) from flags and environment configuration.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/analytics-infra/chrunner/internal/ch"
	"github.com/analytics-infra/chrunner/internal/config"
	"github.com/analytics-infra/chrunner/internal/logging"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(cfg)
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "chrunner",
		Short:         "ClickHouse ingestion runner",
		Long:          "Executes SQL files and ingestion runs against a ClickHouse destination:\nSQL-template ingestion, object-store file ingestion, remote file download\ningestion, and remote query execution.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newQueryCommand(cfg),
		newTabularCommand(cfg),
		newObjstoreCommand(cfg),
		newDownloadCommand(cfg),
		newDuneCommand(cfg),
	)
	return root
}

// connectStore opens the destination store connection for one run.
func connectStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ch.Client, error) {
	return ch.Connect(ctx, cfg.ClickHouse, logger)
}
