// Package model defines the record types that flow through the
// reconciliation pipeline.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RequiredFields lists every field a normalized transaction record must
// carry. A record missing any of these fails the completeness check.
var RequiredFields = []string{
	"customerId",
	"transactionId",
	"transactionDate",
	"sourceDate",
	"merchantId",
	"categoryId",
	"amount",
	"description",
	"currency",
}

// Record is one flattened transaction record from a source batch.
//
// TransactionDate and SourceDate are nil when the raw value was absent or
// could not be parsed; downstream stages treat that absence as data, never
// as an exception. Raw holds the original flat payload (PII already
// stripped) so quarantined records can be persisted verbatim for replay.
type Record struct {
	CustomerID      string
	TransactionID   string
	TransactionDate *time.Time
	SourceDate      *time.Time
	MerchantID      string
	CategoryID      string
	Amount          *decimal.Decimal
	Description     string
	Currency        string
	Raw             map[string]any
}

// HasField reports whether the original payload carried a non-null value
// for the given field.
func (r *Record) HasField(name string) bool {
	v, ok := r.Raw[name]
	return ok && v != nil
}

// RawJSON serializes the original payload for quarantine storage.
func (r *Record) RawJSON() ([]byte, error) {
	if r.Raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Raw)
}

// CustomerSummary is one row per customer with the most recent business
// transaction date across that customer's canonical transactions.
type CustomerSummary struct {
	LatestTransactionDate time.Time
	CustomerID            string
}

// QuarantinedRecord is a record that failed validation, paired with the
// accumulated failure reasons and the original payload for audit.
type QuarantinedRecord struct {
	CustomerID    string
	TransactionID string
	ErrorReason   string
	Raw           map[string]any
}

// RawJSON serializes the original payload for the quarantine table.
func (q *QuarantinedRecord) RawJSON() ([]byte, error) {
	if q.Raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(q.Raw)
}
