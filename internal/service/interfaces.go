// Package service defines the interfaces between the pipeline and its
// collaborators.
package service

import (
	"context"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// TableCounts holds the per-table row counts used for post-run
// verification.
type TableCounts struct {
	Transactions int
	Customers    int
	Quarantine   int
}

// Storage defines the contract for the persistence layer.
//
// The upsert operations are idempotent and freshness-guarded: a row is
// overwritten only when the incoming ordering key (source_date for
// transactions, latest_transaction_date for customers) is strictly greater
// than the stored one. Each row commits independently; a failure aborts the
// remaining rows of that batch but never rolls back rows already applied.
type Storage interface {
	// UpsertTransactions merges canonical transactions and returns the
	// number of rows actually written.
	UpsertTransactions(ctx context.Context, records []model.Record) (int, error)

	// UpsertCustomers merges customer summaries and returns the number of
	// rows actually written.
	UpsertCustomers(ctx context.Context, summaries []model.CustomerSummary) (int, error)

	// SaveQuarantined appends invalid records to the audit table. It is a
	// no-op on an empty slice.
	SaveQuarantined(ctx context.Context, runID string, records []model.QuarantinedRecord) error

	// TableCounts returns read-only row counts for post-run verification.
	TableCounts(ctx context.Context) (TableCounts, error)

	// Migrate brings the schema to the expected version.
	Migrate(ctx context.Context) error

	Close() error
}

// BatchReader supplies one unordered in-memory batch of normalized records.
type BatchReader interface {
	ReadBatch(ctx context.Context) ([]model.Record, error)
}
