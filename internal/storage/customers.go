package storage

import (
	"context"
	"fmt"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// Same freshness protocol as the transactions table, keyed on customer_id
// and guarded on latest_transaction_date.
const upsertCustomerSQL = `
	INSERT INTO customers (customer_id, latest_transaction_date)
	VALUES (?, ?)
	ON CONFLICT (customer_id)
	DO UPDATE SET
		latest_transaction_date = excluded.latest_transaction_date,
		updated_at = CURRENT_TIMESTAMP
	WHERE excluded.latest_transaction_date > customers.latest_transaction_date`

// UpsertCustomers merges customer summaries with one independent row-level
// upsert per summary. Returns the number of rows actually written.
func (s *SQLiteStorage) UpsertCustomers(ctx context.Context, summaries []model.CustomerSummary) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateSummaries(summaries); err != nil {
		return 0, err
	}

	stmt, err := s.db.PrepareContext(ctx, upsertCustomerSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare customer upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	applied := 0
	for i, sum := range summaries {
		res, execErr := stmt.ExecContext(ctx,
			sum.CustomerID,
			sqliteTime(sum.LatestTransactionDate),
		)
		if execErr != nil {
			return applied, fmt.Errorf("failed to upsert customer %d of %d (%s): %w",
				i+1, len(summaries), sum.CustomerID, execErr)
		}

		if n, raErr := res.RowsAffected(); raErr == nil {
			applied += int(n)
		}
	}

	return applied, nil
}
