package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

const insertQuarantineSQL = `
	INSERT INTO quarantine (id, run_id, customer_id, transaction_id, error_reason, raw_data)
	VALUES (?, ?, ?, ?, ?, ?)`

// SaveQuarantined appends invalid records to the quarantine table together
// with their failure reasons and the original payload, serialized as JSON
// for replay. Rows from previous runs are never deduplicated against; the
// table is an append-only audit log.
func (s *SQLiteStorage) SaveQuarantined(ctx context.Context, runID string, records []model.QuarantinedRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	stmt, err := s.db.PrepareContext(ctx, insertQuarantineSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare quarantine insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range records {
		rec := &records[i]
		raw, marshalErr := rec.RawJSON()
		if marshalErr != nil {
			return fmt.Errorf("failed to serialize quarantined record %s/%s: %w",
				rec.CustomerID, rec.TransactionID, marshalErr)
		}

		if _, execErr := stmt.ExecContext(ctx,
			uuid.NewString(),
			runID,
			rec.CustomerID,
			rec.TransactionID,
			rec.ErrorReason,
			string(raw),
		); execErr != nil {
			return fmt.Errorf("failed to insert quarantined record %d of %d: %w",
				i+1, len(records), execErr)
		}
	}

	return nil
}

// QuarantinedReasons returns the error reasons recorded for a run, mostly
// useful for diagnostics and tests.
func (s *SQLiteStorage) QuarantinedReasons(ctx context.Context, runID string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT error_reason FROM quarantine WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarantine: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reasons []string
	for rows.Next() {
		var reason string
		if scanErr := rows.Scan(&reason); scanErr != nil {
			return nil, fmt.Errorf("failed to scan quarantine row: %w", scanErr)
		}
		reasons = append(reasons, reason)
	}

	return reasons, rows.Err()
}
