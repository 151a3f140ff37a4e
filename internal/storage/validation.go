package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecords ensures every record handed to the merger is fully typed.
// A record that fails here slipped past validation, which is a programming
// error, not a data error.
func validateRecords(records []model.Record) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}

	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

// validateRecord validates a single canonical record.
func validateRecord(rec *model.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if rec.CustomerID == "" {
		return fmt.Errorf("%w: missing customerId", ErrInvalidRecord)
	}
	if rec.TransactionID == "" {
		return fmt.Errorf("%w: missing transactionId", ErrInvalidRecord)
	}
	if rec.TransactionDate == nil {
		return fmt.Errorf("%w: unparsed transactionDate", ErrInvalidRecord)
	}
	if rec.SourceDate == nil {
		return fmt.Errorf("%w: unparsed sourceDate", ErrInvalidRecord)
	}
	if rec.Amount == nil {
		return fmt.Errorf("%w: missing amount", ErrInvalidRecord)
	}
	return nil
}

// validateSummaries validates customer summaries before merge.
func validateSummaries(summaries []model.CustomerSummary) error {
	if summaries == nil {
		return fmt.Errorf("%w: summaries", ErrNilParameter)
	}

	for i, sum := range summaries {
		if sum.CustomerID == "" {
			return fmt.Errorf("summary at index %d: %w: missing customerId", i, ErrInvalidRecord)
		}
		if sum.LatestTransactionDate.IsZero() {
			return fmt.Errorf("summary at index %d: %w: zero latestTransactionDate", i, ErrInvalidRecord)
		}
	}
	return nil
}
