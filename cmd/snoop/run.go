package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/cli"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/common"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/config"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/engine"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/export"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/ingest"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/storage"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/validate"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation pipeline over a batch directory",
		Long: `Ingest every JSON batch file from the data directory, validate and
quarantine bad records, deduplicate the rest, and merge them into the
store with freshness-guarded upserts.

Re-running the same batch is always safe: stale writes are no-ops.`,
		RunE: runPipeline,
	}

	cmd.Flags().StringP("data-dir", "d", "data", "directory containing JSON batch files")
	cmd.Flags().String("logs-dir", "logs", "directory for CSV audit exports")
	cmd.Flags().Bool("dry-run", false, "validate and deduplicate without touching the store")
	cmd.Flags().Bool("no-export", false, "skip CSV audit exports")

	_ = viper.BindPFlag("ingest.data_dir", cmd.Flags().Lookup("data-dir"))
	_ = viper.BindPFlag("export.logs_dir", cmd.Flags().Lookup("logs-dir"))
	_ = viper.BindPFlag("run.dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("export.disabled", cmd.Flags().Lookup("no-export"))

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	slog.Info(cli.FormatTitle("Starting reconciliation pipeline"))

	dataDir := config.ExpandPath(viper.GetString("ingest.data_dir"))
	reader := ingest.NewReader(dataDir, viper.GetStringSlice("ingest.pii_fields"))
	validator := validate.NewWithLogger(viper.GetStringSlice("validation.currencies"), slog.Default())

	// The store connection is established with bounded retry before the
	// merge phase ever runs; the engine itself never retries.
	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	cfg := engine.DefaultConfig()
	cfg.DryRun = viper.GetBool("run.dry_run")
	cfg.Logger = slog.Default()

	if !viper.GetBool("export.disabled") {
		logsDir := config.ExpandPath(viper.GetString("export.logs_dir"))
		exporter, expErr := export.NewCSVExporter(logsDir)
		if expErr != nil {
			return expErr
		}
		cfg.Exporter = exporter
	}

	var bar *progressbar.ProgressBar
	cfg.OnMergeProgress = func(completed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Merging transactions..."),
			)
		}
		_ = bar.Set(completed)
	}

	stats, runErr := engine.NewWithConfig(store, reader, validator, cfg).Run(ctx)
	if errors.Is(runErr, common.ErrEmptyBatch) {
		slog.Warn(cli.FormatWarning("No records found, nothing to reconcile"),
			"data_dir", dataDir)
		return nil
	}
	if runErr != nil {
		// Partial progress stands; report how far we got before failing.
		common.LogError(runErr, cli.FormatError("Pipeline failed"), common.Fields{
			"run_id":               stats.RunID,
			"ingested":             stats.Ingested,
			"quarantined":          stats.Quarantined,
			"transactions_applied": stats.TransactionsApplied,
			"customers_applied":    stats.CustomersApplied,
		})
		return runErr
	}

	if bar != nil {
		fmt.Fprintln(os.Stderr)
	}

	common.LogInfo(cli.FormatSuccess("Pipeline complete"), common.Fields{
		"run_id":               stats.RunID,
		"ingested":             stats.Ingested,
		"valid":                stats.Valid,
		"quarantined":          stats.Quarantined,
		"canonical":            stats.Canonical,
		"transactions_applied": stats.TransactionsApplied,
		"customers_applied":    stats.CustomersApplied,
		"duration":             stats.Duration,
	})

	if cfg.DryRun {
		return nil
	}

	return reportCounts(cmd, store)
}

// openStorage opens the configured database with the same bounded
// retry-on-connect behavior the rest of the tooling uses.
func openStorage(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	var store *storage.SQLiteStorage
	err := common.WithRetry(cmd.Context(), func() error {
		var openErr error
		store, openErr = storage.NewSQLiteStorage(dbPath)
		if openErr != nil {
			unavailable := fmt.Errorf("%w: %v", common.ErrStoreUnavailable, openErr)
			return &common.RetryableError{Err: unavailable, Retryable: common.IsRetryable(unavailable)}
		}
		return nil
	}, common.RetryOptions{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
	})
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open database %s", dbPath), err)
	}

	return store, nil
}
