// Package engine orchestrates the reconciliation pipeline: ingest,
// validate, quarantine, deduplicate, merge.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/common"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/dedup"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/service"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/validate"
)

// Exporter receives intermediate pipeline results for audit files. Export
// failures are logged, not fatal: the durable store is the source of truth.
type Exporter interface {
	ExportInvalid(records []model.QuarantinedRecord) error
	ExportCanonical(records []model.Record) error
	ExportSummaries(summaries []model.CustomerSummary) error
}

// Config holds configuration options for the pipeline engine.
type Config struct {
	// OnMergeProgress, if set, is called as merge chunks complete.
	OnMergeProgress func(completed, total int)
	Exporter        Exporter
	// Logger receives run progress; defaults to slog.Default().
	Logger         *slog.Logger
	MergeChunkSize int
	// DryRun stops the pipeline before any store write.
	DryRun bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MergeChunkSize: 100,
	}
}

// RunStats reports how far a run progressed and what it wrote.
type RunStats struct {
	RunID               string
	Ingested            int
	Valid               int
	Quarantined         int
	Canonical           int
	Customers           int
	TransactionsApplied int
	CustomersApplied    int
	Duration            time.Duration
}

// Engine runs one batch end-to-end, single-threaded, against an already
// established store. It does not retry store failures; a failed write
// surfaces immediately with whatever partial progress stands.
type Engine struct {
	storage   service.Storage
	reader    service.BatchReader
	validator *validate.Validator
	logger    *slog.Logger
	config    Config
}

// New creates a pipeline engine with the default configuration.
func New(storage service.Storage, reader service.BatchReader, validator *validate.Validator) *Engine {
	return NewWithConfig(storage, reader, validator, DefaultConfig())
}

// NewWithConfig creates a pipeline engine with custom configuration.
func NewWithConfig(storage service.Storage, reader service.BatchReader, validator *validate.Validator, config Config) *Engine {
	if config.MergeChunkSize <= 0 {
		config.MergeChunkSize = DefaultConfig().MergeChunkSize
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Engine{
		storage:   storage,
		reader:    reader,
		validator: validator,
		logger:    config.Logger,
		config:    config,
	}
}

// Run executes the full pipeline over one batch.
//
// Quarantine is persisted before the merge phase so invalid records stay
// inspectable even when a later merge fails. There is no rollback: rows
// merged before a failure remain applied, and re-running the batch is safe
// because every upsert is freshness-guarded.
func (e *Engine) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	stats := &RunStats{RunID: uuid.NewString()}

	e.logger.Info("Starting reconciliation run", "run_id", stats.RunID)

	records, err := e.reader.ReadBatch(ctx)
	if err != nil {
		return stats, fmt.Errorf("ingest failed: %w", err)
	}
	if len(records) == 0 {
		return stats, fmt.Errorf("nothing to reconcile: %w", common.ErrEmptyBatch)
	}
	stats.Ingested = len(records)

	valid, invalid := e.validator.Partition(records)
	stats.Valid = len(valid)
	stats.Quarantined = len(invalid)

	e.export(func(exp Exporter) error { return exp.ExportInvalid(invalid) }, "invalid records")

	if !e.config.DryRun {
		if err := e.storage.SaveQuarantined(ctx, stats.RunID, invalid); err != nil {
			return stats, fmt.Errorf("quarantine persist failed: %w", err)
		}
	}

	canonical := dedup.Deduplicate(valid)
	summaries := dedup.Summarize(canonical)
	stats.Canonical = len(canonical)
	stats.Customers = len(summaries)

	e.logger.Info("Deduplication complete",
		"canonical", stats.Canonical,
		"customers", stats.Customers,
		"collapsed", stats.Valid-stats.Canonical)

	e.export(func(exp Exporter) error { return exp.ExportCanonical(canonical) }, "canonical transactions")
	e.export(func(exp Exporter) error { return exp.ExportSummaries(summaries) }, "customer summaries")

	if e.config.DryRun {
		e.logger.Info("Dry run, skipping merge phase", "run_id", stats.RunID)
		stats.Duration = time.Since(start)
		return stats, nil
	}

	applied, err := e.mergeTransactions(ctx, canonical)
	stats.TransactionsApplied = applied
	if err != nil {
		return stats, fmt.Errorf("transaction merge failed after %d of %d rows applied: %w",
			applied, len(canonical), err)
	}

	stats.CustomersApplied, err = e.storage.UpsertCustomers(ctx, summaries)
	if err != nil {
		return stats, fmt.Errorf("customer merge failed after %d rows applied: %w",
			stats.CustomersApplied, err)
	}

	stats.Duration = time.Since(start)
	e.logger.Info("Reconciliation run complete",
		"run_id", stats.RunID,
		"transactions_applied", stats.TransactionsApplied,
		"customers_applied", stats.CustomersApplied,
		"quarantined", stats.Quarantined,
		"duration", stats.Duration)

	return stats, nil
}

// mergeTransactions upserts canonical records in chunks so progress can be
// reported. Chunking does not change semantics: every row still commits
// independently inside the store.
func (e *Engine) mergeTransactions(ctx context.Context, canonical []model.Record) (int, error) {
	total := len(canonical)
	applied := 0

	for offset := 0; offset < total; offset += e.config.MergeChunkSize {
		end := offset + e.config.MergeChunkSize
		if end > total {
			end = total
		}

		n, err := e.storage.UpsertTransactions(ctx, canonical[offset:end])
		applied += n
		if err != nil {
			return applied, err
		}

		if e.config.OnMergeProgress != nil {
			e.config.OnMergeProgress(end, total)
		}
	}

	return applied, nil
}

func (e *Engine) export(fn func(Exporter) error, what string) {
	if e.config.Exporter == nil {
		return
	}
	if err := fn(e.config.Exporter); err != nil {
		e.logger.Warn("Export failed", "artifact", what, "error", err)
	}
}
