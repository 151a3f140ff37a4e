package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBatchFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write batch file: %v", err)
	}
}

func TestReadBatch(t *testing.T) {
	dir := t.TempDir()

	writeBatchFile(t, dir, "feed_a.json", `{
		"transactions": [
			{"customerId": "C1", "transactionId": "T1", "transactionDate": "2025-01-01",
			 "sourceDate": "2025-01-05", "merchantId": "M1", "categoryId": "1",
			 "amount": 10.00, "description": "a", "currency": "USD"},
			{"customerId": "C2", "transactionId": "T2", "transactionDate": "2025-01-02",
			 "sourceDate": "2025-01-05", "merchantId": "M2", "categoryId": "2",
			 "amount": 20.00, "description": "b", "currency": "EUR"}
		]
	}`)
	writeBatchFile(t, dir, "feed_b.json", `[
		{"transactions": [
			{"customerId": "C3", "transactionId": "T3", "transactionDate": "2025-01-03",
			 "sourceDate": "2025-01-06", "merchantId": "M3", "categoryId": "3",
			 "amount": 30.00, "description": "c", "currency": "GBP"}
		]}
	]`)
	writeBatchFile(t, dir, "notes.txt", "not json, not picked up")
	writeBatchFile(t, dir, "broken.json", `{"transactions": [`)

	reader := NewReader(dir, nil)
	records, err := reader.ReadBatch(context.Background())
	require.NoError(t, err, "a malformed file must be skipped, not fatal")

	require.Len(t, records, 3)

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.TransactionID)
	}
	assert.ElementsMatch(t, []string{"T1", "T2", "T3"}, ids)
}

func TestReadBatchEmptyDirectory(t *testing.T) {
	reader := NewReader(t.TempDir(), nil)

	records, err := reader.ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadBatchMissingDirectory(t *testing.T) {
	reader := NewReader(filepath.Join(t.TempDir(), "nope"), nil)

	_, err := reader.ReadBatch(context.Background())
	assert.Error(t, err)
}

func TestReadBatchSingleNestedObject(t *testing.T) {
	dir := t.TempDir()
	writeBatchFile(t, dir, "single.json", `{
		"transactions": {"customerId": "C1", "transactionId": "T1",
		 "transactionDate": "2025-01-01", "sourceDate": "2025-01-02",
		 "merchantId": "M1", "categoryId": "1", "amount": "5.50",
		 "description": "x", "currency": "USD"}
	}`)

	reader := NewReader(dir, nil)
	records, err := reader.ReadBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "C1", records[0].CustomerID)
	require.NotNil(t, records[0].Amount)
	assert.Equal(t, "5.5", records[0].Amount.String())
}
