package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportInvalid(t *testing.T) {
	dir := t.TempDir()
	exp, err := NewCSVExporter(dir)
	require.NoError(t, err)

	records := []model.QuarantinedRecord{
		{
			CustomerID:    "C1",
			TransactionID: "T1",
			ErrorReason:   "Invalid currency",
			Raw:           map[string]any{"currency": "JPY"},
		},
	}
	require.NoError(t, exp.ExportInvalid(records))

	rows := readCSV(t, filepath.Join(dir, InvalidRecordsFile))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"customerId", "transactionId", "error_reason", "raw_data"}, rows[0])
	assert.Equal(t, "C1", rows[1][0])
	assert.Contains(t, rows[1][3], `"currency":"JPY"`)
}

func TestExportInvalidEmptyWritesNothing(t *testing.T) {
	dir := t.TempDir()
	exp, err := NewCSVExporter(dir)
	require.NoError(t, err)

	require.NoError(t, exp.ExportInvalid(nil))

	_, statErr := os.Stat(filepath.Join(dir, InvalidRecordsFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportCanonicalAndSummaries(t *testing.T) {
	dir := t.TempDir()
	exp, err := NewCSVExporter(dir)
	require.NoError(t, err)

	date := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("19.99")
	records := []model.Record{{
		CustomerID:      "C1",
		TransactionID:   "T1",
		TransactionDate: &date,
		SourceDate:      &date,
		MerchantID:      "M1",
		CategoryID:      "7",
		Amount:          &amount,
		Description:     "groceries",
		Currency:        "USD",
	}}

	require.NoError(t, exp.ExportCanonical(records))
	require.NoError(t, exp.ExportSummaries([]model.CustomerSummary{
		{CustomerID: "C1", LatestTransactionDate: date},
	}))

	cleaned := readCSV(t, filepath.Join(dir, CleanedFile))
	require.Len(t, cleaned, 2)
	assert.Equal(t, "19.99", cleaned[1][6])

	summaries := readCSV(t, filepath.Join(dir, CustomerSummaryFile))
	require.Len(t, summaries, 2)
	assert.Equal(t, []string{"customerId", "latestTransactionDate"}, summaries[0])
	assert.Equal(t, "2025-01-02 10:00:00", summaries[1][1])
}
