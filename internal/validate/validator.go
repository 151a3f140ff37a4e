// Package validate applies data-quality rules to normalized transaction
// records and partitions them into valid and quarantined sets.
package validate

import (
	"log/slog"
	"strings"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// Rule failure reasons, accumulated per record and semicolon-joined.
const (
	ReasonMissingValues   = "Missing values"
	ReasonInvalidDate     = "Invalid transactionDate"
	ReasonInvalidCurrency = "Invalid currency"
	ReasonDuplicateID     = "Duplicate transactionId"
)

// DefaultCurrencies is the allow-list from the data dictionary.
var DefaultCurrencies = []string{"USD", "EUR", "GBP"}

// Validator applies the quality rules. Rules are independent: a record may
// fail several at once and every matching reason is recorded.
type Validator struct {
	currencies map[string]struct{}
	logger     *slog.Logger
}

// New creates a validator with the given currency allow-list; an empty list
// falls back to DefaultCurrencies.
func New(currencies []string) *Validator {
	return NewWithLogger(currencies, slog.Default())
}

// NewWithLogger creates a validator that logs through the given logger.
func NewWithLogger(currencies []string, logger *slog.Logger) *Validator {
	if len(currencies) == 0 {
		currencies = DefaultCurrencies
	}
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make(map[string]struct{}, len(currencies))
	for _, c := range currencies {
		allowed[c] = struct{}{}
	}
	return &Validator{currencies: allowed, logger: logger}
}

// Partition classifies every record in the batch as valid or invalid.
// Every input record lands in exactly one of the two outputs, except that
// invalid records are deduplicated by (customerId, transactionId,
// error_reason) so duplicate detection does not flood the audit log with
// identical entries.
func (v *Validator) Partition(records []model.Record) ([]model.Record, []model.QuarantinedRecord) {
	// The duplicate rule is batch-global and intentionally ignores
	// customerId: every copy of a repeated transactionId is quarantined,
	// none is kept. Records without a transactionId compare equal to each
	// other, so two id-less records are duplicates too.
	idCounts := make(map[string]int, len(records))
	for i := range records {
		idCounts[records[i].TransactionID]++
	}

	var valid []model.Record
	var invalid []model.QuarantinedRecord
	seen := make(map[quarantineKey]struct{})

	counts := map[string]int{}
	for i := range records {
		rec := &records[i]

		var reasons []string
		if hasMissingValues(rec) {
			reasons = append(reasons, ReasonMissingValues)
			counts[ReasonMissingValues]++
		}
		if rec.TransactionDate == nil {
			reasons = append(reasons, ReasonInvalidDate)
			counts[ReasonInvalidDate]++
		}
		if _, ok := v.currencies[rec.Currency]; !ok {
			reasons = append(reasons, ReasonInvalidCurrency)
			counts[ReasonInvalidCurrency]++
		}
		if idCounts[rec.TransactionID] > 1 {
			reasons = append(reasons, ReasonDuplicateID)
			counts[ReasonDuplicateID]++
		}

		if len(reasons) == 0 {
			valid = append(valid, *rec)
			continue
		}

		q := model.QuarantinedRecord{
			CustomerID:    rec.CustomerID,
			TransactionID: rec.TransactionID,
			ErrorReason:   strings.Join(reasons, "; "),
			Raw:           rec.Raw,
		}

		key := quarantineKey{q.CustomerID, q.TransactionID, q.ErrorReason}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		invalid = append(invalid, q)
	}

	for reason, n := range counts {
		v.logger.Info("Validation rule matched", "reason", reason, "records", n)
	}
	v.logger.Info("Validation complete",
		"valid", len(valid),
		"invalid", len(invalid),
		"total", len(records))

	return valid, invalid
}

type quarantineKey struct {
	customerID    string
	transactionID string
	errorReason   string
}

// hasMissingValues reports whether any required field is absent or null.
// A field that is present but cannot be read as its expected type (an
// amount or sourceDate that isn't a number or timestamp) counts as missing
// too: it carries no usable value and must not reach the merger.
func hasMissingValues(rec *model.Record) bool {
	for _, f := range model.RequiredFields {
		if !rec.HasField(f) {
			return true
		}
	}
	if rec.Amount == nil && rec.HasField("amount") {
		return true
	}
	if rec.SourceDate == nil && rec.HasField("sourceDate") {
		return true
	}
	return false
}
