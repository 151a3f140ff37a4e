package validate

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/ingest"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// makeRecord builds a normalized record with every required field present,
// then applies overrides. An override with a nil value removes the field.
func makeRecord(t *testing.T, overrides map[string]any) model.Record {
	t.Helper()

	raw := map[string]any{
		"customerId":      "C1",
		"transactionId":   "T1",
		"transactionDate": "2025-01-02T10:00:00Z",
		"sourceDate":      "2025-01-03T08:00:00Z",
		"merchantId":      "M1",
		"categoryId":      "7",
		"amount":          "19.99",
		"description":     "groceries",
		"currency":        "USD",
	}
	for k, v := range overrides {
		if v == nil {
			delete(raw, k)
			continue
		}
		raw[k] = v
	}

	return ingest.Normalize(raw, nil)
}

func TestPartitionValidRecord(t *testing.T) {
	v := New(nil)

	valid, invalid := v.Partition([]model.Record{makeRecord(t, nil)})

	assert.Len(t, valid, 1)
	assert.Empty(t, invalid)
}

func TestPartitionMissingAmount(t *testing.T) {
	v := New(nil)

	valid, invalid := v.Partition([]model.Record{
		makeRecord(t, map[string]any{"amount": nil}),
	})

	assert.Empty(t, valid)
	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].ErrorReason, ReasonMissingValues)
}

func TestPartitionInvalidCurrency(t *testing.T) {
	v := New(nil)

	valid, invalid := v.Partition([]model.Record{
		makeRecord(t, map[string]any{"currency": "JPY"}),
	})

	assert.Empty(t, valid)
	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].ErrorReason, ReasonInvalidCurrency)
}

func TestPartitionCustomCurrencyAllowList(t *testing.T) {
	v := New([]string{"JPY"})

	valid, invalid := v.Partition([]model.Record{
		makeRecord(t, map[string]any{"currency": "JPY"}),
	})

	assert.Len(t, valid, 1)
	assert.Empty(t, invalid)
}

func TestPartitionUnparsableDate(t *testing.T) {
	v := New(nil)

	_, invalid := v.Partition([]model.Record{
		makeRecord(t, map[string]any{"transactionDate": "sometime in March"}),
	})

	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].ErrorReason, ReasonInvalidDate)
	assert.NotContains(t, invalid[0].ErrorReason, ReasonMissingValues,
		"a present but unparsable date is not a missing value")
}

func TestPartitionReasonsAccumulate(t *testing.T) {
	v := New(nil)

	// Absent transactionDate fails both the completeness rule and the date
	// rule; both reasons must be recorded.
	_, invalid := v.Partition([]model.Record{
		makeRecord(t, map[string]any{"transactionDate": nil, "currency": "XXX"}),
	})

	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].ErrorReason, ReasonMissingValues)
	assert.Contains(t, invalid[0].ErrorReason, ReasonInvalidDate)
	assert.Contains(t, invalid[0].ErrorReason, ReasonInvalidCurrency)
}

func TestPartitionDuplicateTransactionIDAcrossCustomers(t *testing.T) {
	v := New(nil)

	// The duplicate rule is batch-global: a transactionId shared by three
	// different customers quarantines every copy, none survives.
	records := []model.Record{
		makeRecord(t, map[string]any{"customerId": "C1"}),
		makeRecord(t, map[string]any{"customerId": "C2"}),
		makeRecord(t, map[string]any{"customerId": "C3"}),
	}

	valid, invalid := v.Partition(records)

	assert.Empty(t, valid)
	require.Len(t, invalid, 3)
	for _, q := range invalid {
		assert.Contains(t, q.ErrorReason, ReasonDuplicateID)
	}
}

func TestPartitionIDLessRecordsAreDuplicates(t *testing.T) {
	v := New(nil)

	// Records without a transactionId compare equal to each other: two
	// id-less records trip the duplicate rule on top of the completeness
	// rule.
	records := []model.Record{
		makeRecord(t, map[string]any{"customerId": "C1", "transactionId": nil}),
		makeRecord(t, map[string]any{"customerId": "C2", "transactionId": nil}),
	}

	valid, invalid := v.Partition(records)

	assert.Empty(t, valid)
	require.Len(t, invalid, 2)
	for _, q := range invalid {
		assert.Contains(t, q.ErrorReason, ReasonMissingValues)
		assert.Contains(t, q.ErrorReason, ReasonDuplicateID)
	}
}

func TestPartitionSingleIDLessRecordNotDuplicate(t *testing.T) {
	v := New(nil)

	_, invalid := v.Partition([]model.Record{
		makeRecord(t, map[string]any{"transactionId": nil}),
	})

	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].ErrorReason, ReasonMissingValues)
	assert.NotContains(t, invalid[0].ErrorReason, ReasonDuplicateID)
}

func TestPartitionDuplicateQuarantineCollapsed(t *testing.T) {
	v := New(nil)

	// Identical (customerId, transactionId, error_reason) triples produce a
	// single audit entry.
	records := []model.Record{
		makeRecord(t, nil),
		makeRecord(t, nil),
	}

	valid, invalid := v.Partition(records)

	assert.Empty(t, valid)
	assert.Len(t, invalid, 1)
}

func TestPartitionCompleteness(t *testing.T) {
	v := New(nil)

	records := []model.Record{
		makeRecord(t, map[string]any{"transactionId": "T10"}),
		makeRecord(t, map[string]any{"transactionId": "T11", "currency": "AUD"}),
		makeRecord(t, map[string]any{"transactionId": "T12", "description": nil}),
	}

	valid, invalid := v.Partition(records)

	// Every record lands in exactly one of the two outputs.
	assert.Equal(t, len(records), len(valid)+len(invalid))
	assert.Len(t, valid, 1)
	assert.Len(t, invalid, 2)
}

func TestPartitionUnreadableAmountQuarantined(t *testing.T) {
	v := New(nil)

	_, invalid := v.Partition([]model.Record{
		makeRecord(t, map[string]any{"transactionId": "T20", "amount": "twelve"}),
	})

	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].ErrorReason, ReasonMissingValues,
		"an amount that cannot be read carries no usable value")
}

func TestPartitionLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	v := NewWithLogger(nil, slog.New(slog.NewTextHandler(&buf, nil)))

	v.Partition([]model.Record{makeRecord(t, nil)})

	assert.Contains(t, buf.String(), "Validation complete")
}
