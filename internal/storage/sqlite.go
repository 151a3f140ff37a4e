// Package storage provides the SQLite persistence layer for the
// reconciliation pipeline.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// TableCounts returns the current row count of every pipeline table.
func (s *SQLiteStorage) TableCounts(ctx context.Context) (service.TableCounts, error) {
	var counts service.TableCounts
	if err := validateContext(ctx); err != nil {
		return counts, err
	}

	for _, t := range []struct {
		dest *int
		name string
	}{
		{&counts.Transactions, "transactions"},
		{&counts.Customers, "customers"},
		{&counts.Quarantine, "quarantine"},
	} {
		// Table names come from a fixed list, never from input.
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", t.name)
		if err := s.db.QueryRowContext(ctx, query).Scan(t.dest); err != nil {
			return counts, fmt.Errorf("failed to count rows in %s: %w", t.name, err)
		}
	}

	return counts, nil
}

// sqliteTime renders a timestamp so that SQLite's lexicographic DATETIME
// comparison is chronological. All stored dates go through this; mixing
// zones or formats would break the monotonic source_date guard.
func sqliteTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
