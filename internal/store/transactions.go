package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/model"
)

const transactionColumns = `id, pack_id, sale_date, amount, profit`

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	t := &model.Transaction{}
	if err := row.Scan(&t.ID, &t.PackID, &t.SaleDate, &t.Amount, &t.Profit); err != nil {
		return nil, err
	}
	return t, nil
}

// RecordSale records the sale of a pack. Profit is the amount minus the
// pack's current price and is never recomputed afterwards.
// Returns NotFound if the pack does not exist.
func RecordSale(ctx context.Context, q db.Querier, packID string, amount decimal.Decimal) (*model.Transaction, error) {
	pack, err := GetPack(ctx, q, packID)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, apperr.NotFoundf("pack %s not found", packID)
	}

	profit := amount.Sub(pack.Price)

	var id int64
	if err := q.QueryRowContext(ctx,
		`INSERT INTO transactions (pack_id, amount, profit, sale_date) VALUES (?, ?, ?, ?) RETURNING id`,
		packID, amount, profit, time.Now().UTC(),
	).Scan(&id); err != nil {
		return nil, fmt.Errorf("recording sale: %w", err)
	}

	return GetTransaction(ctx, q, id)
}

// GetTransaction returns a transaction by ID, or nil if it does not exist.
func GetTransaction(ctx context.Context, q db.Querier, id int64) (*model.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// EarliestTransactionForPack returns the oldest live transaction of a pack,
// or nil if it has none.
func EarliestTransactionForPack(ctx context.Context, q db.Querier, packID string) (*model.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE pack_id = ? ORDER BY id LIMIT 1`, packID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pack transaction: %w", err)
	}
	return t, nil
}

// DeleteTransaction removes a transaction and returns the pack it belonged to.
// Returns NotFound if the transaction does not exist.
func DeleteTransaction(ctx context.Context, q db.Querier, id int64) (string, error) {
	var packID string
	err := q.QueryRowContext(ctx,
		`DELETE FROM transactions WHERE id = ? RETURNING pack_id`, id,
	).Scan(&packID)
	if err == sql.ErrNoRows {
		return "", apperr.NotFoundf("transaction %d not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("deleting transaction: %w", err)
	}
	return packID, nil
}

// DeleteTransactionsForPack removes every transaction of a pack.
func DeleteTransactionsForPack(ctx context.Context, q db.Querier, packID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE pack_id = ?`, packID)
	if err != nil {
		return fmt.Errorf("deleting pack transactions: %w", err)
	}
	return nil
}

// CountTransactionsForPack returns the number of live transactions of a pack.
func CountTransactionsForPack(ctx context.Context, q db.Querier, packID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE pack_id = ?`, packID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return n, nil
}

// ListTransactions returns all transactions ordered by identifier.
func ListTransactions(ctx context.Context, q db.Querier) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// TotalProfit returns the sum of profit over all transactions, 0 if none.
func TotalProfit(ctx context.Context, q db.Querier) (decimal.Decimal, error) {
	total, err := sumDecimals(ctx, q, `SELECT profit FROM transactions`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing profit: %w", err)
	}
	return total, nil
}
