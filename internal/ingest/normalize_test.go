package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	raw := map[string]any{
		"customerId":      "C1",
		"customerName":    "Jane Doe",
		"transactionId":   "T1",
		"transactionDate": "2025-01-02T10:00:00Z",
		"sourceDate":      "2025-01-03T08:00:00Z",
		"merchantId":      "M9",
		"categoryId":      "5",
		"amount":          json.Number("42.75"),
		"description":     "coffee",
		"currency":        "USD",
		"meta":            map[string]any{"channel": "web"},
	}

	rec := Normalize(raw, DefaultPIIFields)

	assert.Equal(t, "C1", rec.CustomerID)
	assert.Equal(t, "T1", rec.TransactionID)
	assert.Equal(t, "M9", rec.MerchantID)
	assert.Equal(t, "5", rec.CategoryID)
	assert.Equal(t, "coffee", rec.Description)
	assert.Equal(t, "USD", rec.Currency)

	require.NotNil(t, rec.TransactionDate)
	assert.Equal(t, "2025-01-02T10:00:00Z", rec.TransactionDate.Format("2006-01-02T15:04:05Z"))
	require.NotNil(t, rec.SourceDate)

	require.NotNil(t, rec.Amount)
	assert.Equal(t, "42.75", rec.Amount.String())

	// Nested objects are flattened with dot keys.
	assert.Equal(t, "web", rec.Raw["meta.channel"])
	assert.NotContains(t, rec.Raw, "meta")
}

func TestNormalizeStripsPII(t *testing.T) {
	raw := map[string]any{
		"customerId":   "C1",
		"customerName": "Jane Doe",
	}

	rec := Normalize(raw, DefaultPIIFields)

	assert.NotContains(t, rec.Raw, "customerName", "PII must never survive normalization")
	assert.False(t, rec.HasField("customerName"))
}

func TestNormalizeUnparsableValues(t *testing.T) {
	raw := map[string]any{
		"customerId":      "C1",
		"transactionId":   "T1",
		"transactionDate": "yesterday-ish",
		"sourceDate":      nil,
		"amount":          "not-a-number",
	}

	rec := Normalize(raw, nil)

	assert.Nil(t, rec.TransactionDate, "unparsable date is an absence, not an error")
	assert.Nil(t, rec.SourceDate)
	assert.Nil(t, rec.Amount)

	// The raw payload keeps the original values for quarantine replay.
	assert.Equal(t, "yesterday-ish", rec.Raw["transactionDate"])
	assert.Equal(t, "not-a-number", rec.Raw["amount"])
}

func TestNormalizeNumericIDs(t *testing.T) {
	raw := map[string]any{
		"customerId":    json.Number("1001"),
		"transactionId": json.Number("55"),
	}

	rec := Normalize(raw, nil)

	assert.Equal(t, "1001", rec.CustomerID)
	assert.Equal(t, "55", rec.TransactionID)
}
