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

const packColumns = `id, brand, category, price, status, number_of_items, last_item_seq, created_date`

func scanPack(row interface{ Scan(...any) error }) (*model.Pack, error) {
	p := &model.Pack{}
	if err := row.Scan(&p.ID, &p.Brand, &p.Category, &p.Price, &p.Status, &p.NumberOfItems, &p.LastItemSeq, &p.CreatedDate); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePack inserts a new unsold pack. A colliding identifier is reported as
// a DuplicateKey error so the caller can draw a new one.
func CreatePack(ctx context.Context, q db.Querier, id, brand, category string, price decimal.Decimal, itemCount int) (*model.Pack, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO packs (id, brand, category, price, status, number_of_items, last_item_seq, created_date)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		id, brand, category, price, model.PackStatusNotSold, itemCount, time.Now().UTC(),
	)
	if db.IsUniqueViolation(err) {
		return nil, apperr.Duplicate(fmt.Sprintf("pack id %s already exists", id), err)
	}
	if err != nil {
		return nil, fmt.Errorf("creating pack: %w", err)
	}

	return GetPack(ctx, q, id)
}

// GetPack returns a pack by ID, or nil if it does not exist.
func GetPack(ctx context.Context, q db.Querier, id string) (*model.Pack, error) {
	p, err := scanPack(q.QueryRowContext(ctx,
		`SELECT `+packColumns+` FROM packs WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pack: %w", err)
	}
	return p, nil
}

// ListPacks returns all packs, newest first.
func ListPacks(ctx context.Context, q db.Querier) ([]model.Pack, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+packColumns+` FROM packs ORDER BY created_date DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing packs: %w", err)
	}
	defer rows.Close()

	var packs []model.Pack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pack: %w", err)
		}
		packs = append(packs, *p)
	}
	return packs, rows.Err()
}

// UpdatePackDetails writes a pack's editable fields and refreshes its
// timestamp. Returns NotFound if the pack does not exist.
func UpdatePackDetails(ctx context.Context, q db.Querier, id, brand, category string, itemCount int, price decimal.Decimal) (*model.Pack, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE packs SET brand = ?, category = ?, number_of_items = ?, price = ?, created_date = ?
		 WHERE id = ?`,
		brand, category, itemCount, price, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating pack: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, apperr.NotFoundf("pack %s not found", id)
	}

	return GetPack(ctx, q, id)
}

// RaiseItemSeq moves the pack's item sequence high-water mark up to seq.
// It never lowers it.
func RaiseItemSeq(ctx context.Context, q db.Querier, id string, seq int) error {
	_, err := q.ExecContext(ctx,
		`UPDATE packs SET last_item_seq = CASE WHEN last_item_seq < ? THEN ? ELSE last_item_seq END
		 WHERE id = ?`,
		seq, seq, id,
	)
	if err != nil {
		return fmt.Errorf("raising item sequence: %w", err)
	}
	return nil
}

// DecrementItemCount lowers the pack's item count by one and returns the new count.
func DecrementItemCount(ctx context.Context, q db.Querier, id string) (int, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE packs SET number_of_items = number_of_items - 1 WHERE id = ? AND number_of_items > 0`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("decrementing item count: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return 0, apperr.NotFoundf("pack %s not found or already empty", id)
	}

	var count int
	if err := q.QueryRowContext(ctx,
		`SELECT number_of_items FROM packs WHERE id = ?`, id,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("reading item count: %w", err)
	}
	return count, nil
}

// SetPackStatus writes a pack's status unconditionally.
func SetPackStatus(ctx context.Context, q db.Querier, id, status string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE packs SET status = ? WHERE id = ?`, status, id,
	)
	if err != nil {
		return fmt.Errorf("setting pack status: %w", err)
	}
	return nil
}

// DeletePack removes a pack row. Dependents must be deleted first.
func DeletePack(ctx context.Context, q db.Querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM packs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pack: %w", err)
	}
	return nil
}

// CountPacks returns the number of packs.
func CountPacks(ctx context.Context, q db.Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM packs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting packs: %w", err)
	}
	return n, nil
}

// CountPacksByStatus returns the number of packs with the given status.
func CountPacksByStatus(ctx context.Context, q db.Querier, status string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM packs WHERE status = ?`, status,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting packs by status: %w", err)
	}
	return n, nil
}

// ListCategories returns the distinct pack categories in alphabetical order.
func ListCategories(ctx context.Context, q db.Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT category FROM packs ORDER BY category`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// TotalPackValue returns the sum of all pack prices, sold or not.
func TotalPackValue(ctx context.Context, q db.Querier) (decimal.Decimal, error) {
	total, err := sumDecimals(ctx, q, `SELECT price FROM packs`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing pack prices: %w", err)
	}
	return total, nil
}

// sumDecimals adds up a single decimal column in Go. SQL SUM over the
// SQLite text column would go through floating point.
func sumDecimals(ctx context.Context, q db.Querier, query string) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v decimal.Decimal
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, rows.Err()
}
