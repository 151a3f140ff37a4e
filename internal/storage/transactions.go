package storage

import (
	"context"
	"fmt"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// upsertTransactionSQL applies a row only when the incoming source_date is
// strictly greater than the stored one. An equal or older source_date is a
// silent no-op; the stored source_date is therefore monotonically
// non-decreasing. The guard lives in the statement itself so the check and
// the write are atomic at the store layer.
const upsertTransactionSQL = `
	INSERT INTO transactions (
		customer_id, transaction_id, transaction_date, source_date,
		merchant_id, category_id, amount, description, currency
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (customer_id, transaction_id)
	DO UPDATE SET
		transaction_date = excluded.transaction_date,
		source_date = excluded.source_date,
		merchant_id = excluded.merchant_id,
		category_id = excluded.category_id,
		amount = excluded.amount,
		description = excluded.description,
		currency = excluded.currency,
		updated_at = CURRENT_TIMESTAMP
	WHERE excluded.source_date > transactions.source_date`

// UpsertTransactions merges canonical transactions into the transactions
// table, one independent row-level upsert per record. There is no wrapping
// transaction: a failure aborts the remaining rows but rows already applied
// stay applied. Re-running the same batch is safe because stale writes are
// no-ops.
//
// Returns the number of rows actually written (inserted or overwritten).
func (s *SQLiteStorage) UpsertTransactions(ctx context.Context, records []model.Record) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateRecords(records); err != nil {
		return 0, err
	}

	stmt, err := s.db.PrepareContext(ctx, upsertTransactionSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare transaction upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	applied := 0
	for i, rec := range records {
		res, execErr := stmt.ExecContext(ctx,
			rec.CustomerID,
			rec.TransactionID,
			sqliteTime(*rec.TransactionDate),
			sqliteTime(*rec.SourceDate),
			rec.MerchantID,
			rec.CategoryID,
			rec.Amount.String(),
			rec.Description,
			rec.Currency,
		)
		if execErr != nil {
			return applied, fmt.Errorf("failed to upsert transaction %d of %d (%s/%s): %w",
				i+1, len(records), rec.CustomerID, rec.TransactionID, execErr)
		}

		if n, raErr := res.RowsAffected(); raErr == nil {
			applied += int(n)
		}
	}

	return applied, nil
}
