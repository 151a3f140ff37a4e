// Package ingest reads raw transaction batches from JSON files and
// normalizes them into flat records.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

// Reader loads every JSON batch file from a data directory. Each file holds
// one or more raw documents; each document carries a nested "transactions"
// collection that is un-nested one level before normalization.
type Reader struct {
	dataDir   string
	piiFields []string
}

// NewReader creates a batch reader over the given directory.
func NewReader(dataDir string, piiFields []string) *Reader {
	if len(piiFields) == 0 {
		piiFields = DefaultPIIFields
	}
	return &Reader{
		dataDir:   dataDir,
		piiFields: piiFields,
	}
}

// ReadBatch reads and normalizes every record from every *.json file in the
// data directory. Files that fail to parse are logged and skipped; a source
// dropping a malformed file must not sink the whole batch. An empty or
// all-malformed directory yields an empty batch, not an error.
func (r *Reader) ReadBatch(ctx context.Context) ([]model.Record, error) {
	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan data directory %s: %w", r.dataDir, err)
	}

	var records []model.Record
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(r.dataDir, entry.Name())
		fileRecords, readErr := r.readFile(path)
		if readErr != nil {
			slog.Warn("Could not load batch file, skipping",
				"file", entry.Name(),
				"error", readErr)
			continue
		}

		slog.Info("Loaded batch file",
			"file", entry.Name(),
			"records", len(fileRecords))
		records = append(records, fileRecords...)
	}

	slog.Info("Batch ingest complete", "total_records", len(records))
	return records, nil
}

func (r *Reader) readFile(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the configured data dir
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber() // keep amounts lossless until decimal parsing

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	docs, err := asDocuments(doc)
	if err != nil {
		return nil, err
	}

	var records []model.Record
	for _, d := range docs {
		for _, raw := range unnestTransactions(d) {
			records = append(records, Normalize(raw, r.piiFields))
		}
	}
	return records, nil
}

// asDocuments accepts either a single raw document or an array of them.
func asDocuments(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		docs := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected object in top-level array, got %T", item)
			}
			docs = append(docs, m)
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("expected object or array at top level, got %T", doc)
	}
}

// unnestTransactions performs the one level of un-nesting: each raw
// document is expected to carry its transaction objects under a
// "transactions" key, either as a collection or as a single object.
func unnestTransactions(doc map[string]any) []map[string]any {
	nested, ok := doc["transactions"]
	if !ok {
		return nil
	}

	switch v := nested.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{v}
	default:
		return nil
	}
}
