// Package export writes intermediate pipeline results to CSV files for
// offline inspection.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// File names written into the logs directory.
const (
	InvalidRecordsFile  = "invalid_records.csv"
	CleanedFile         = "cleaned_transactions.csv"
	CustomerSummaryFile = "customers_summary.csv"

	timestampLayout = "2006-01-02 15:04:05"
)

// CSVExporter writes audit CSVs into a logs directory.
type CSVExporter struct {
	logsDir string
}

// NewCSVExporter creates an exporter rooted at logsDir, creating the
// directory if needed.
func NewCSVExporter(logsDir string) (*CSVExporter, error) {
	if err := os.MkdirAll(logsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	return &CSVExporter{logsDir: logsDir}, nil
}

// ExportInvalid writes quarantined records with their reasons and raw
// payloads. Writes nothing when there are no invalid records.
func (e *CSVExporter) ExportInvalid(records []model.QuarantinedRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(records))
	for i := range records {
		raw, err := records[i].RawJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize record %s/%s: %w",
				records[i].CustomerID, records[i].TransactionID, err)
		}
		rows = append(rows, []string{
			records[i].CustomerID,
			records[i].TransactionID,
			records[i].ErrorReason,
			string(raw),
		})
	}

	return e.writeFile(InvalidRecordsFile,
		[]string{"customerId", "transactionId", "error_reason", "raw_data"}, rows)
}

// ExportCanonical writes the deduplicated transactions.
func (e *CSVExporter) ExportCanonical(records []model.Record) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rec := &records[i]
		rows = append(rows, []string{
			rec.CustomerID,
			rec.TransactionID,
			rec.TransactionDate.Format(timestampLayout),
			rec.SourceDate.Format(timestampLayout),
			rec.MerchantID,
			rec.CategoryID,
			rec.Amount.String(),
			rec.Description,
			rec.Currency,
		})
	}

	return e.writeFile(CleanedFile, []string{
		"customerId", "transactionId", "transactionDate", "sourceDate",
		"merchantId", "categoryId", "amount", "description", "currency",
	}, rows)
}

// ExportSummaries writes the per-customer summary table.
func (e *CSVExporter) ExportSummaries(summaries []model.CustomerSummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, sum := range summaries {
		rows = append(rows, []string{
			sum.CustomerID,
			sum.LatestTransactionDate.Format(timestampLayout),
		})
	}

	return e.writeFile(CustomerSummaryFile,
		[]string{"customerId", "latestTransactionDate"}, rows)
}

func (e *CSVExporter) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(e.logsDir, name)
	f, err := os.Create(path) // #nosec G304 -- path is built from the configured logs dir
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows to %s: %w", name, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return f.Close()
}
