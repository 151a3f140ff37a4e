package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// StoredTransaction is a persisted transaction row.
type StoredTransaction struct {
	TransactionDate time.Time
	SourceDate      time.Time
	UpdatedAt       time.Time
	CustomerID      string
	TransactionID   string
	MerchantID      string
	CategoryID      string
	Description     string
	Currency        string
	Amount          decimal.Decimal
}

// GetTransaction fetches one persisted transaction by its composite key.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, customerID, transactionID string) (*StoredTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT customer_id, transaction_id, transaction_date, source_date,
		       merchant_id, category_id, amount, description, currency, updated_at
		FROM transactions
		WHERE customer_id = ? AND transaction_id = ?`,
		customerID, transactionID)

	var txn StoredTransaction
	var amount string
	err := row.Scan(
		&txn.CustomerID,
		&txn.TransactionID,
		&txn.TransactionDate,
		&txn.SourceDate,
		&txn.MerchantID,
		&txn.CategoryID,
		&amount,
		&txn.Description,
		&txn.Currency,
		&txn.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s/%s", ErrNotFound, customerID, transactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	txn.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
	}

	return &txn, nil
}

// GetCustomerLatestDate fetches the stored latest_transaction_date for a
// customer.
func (s *SQLiteStorage) GetCustomerLatestDate(ctx context.Context, customerID string) (time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return time.Time{}, err
	}

	var latest time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT latest_transaction_date FROM customers WHERE customer_id = ?",
		customerID).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get customer: %w", err)
	}

	return latest, nil
}
