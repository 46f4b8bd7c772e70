package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/ident"
	"github.com/erazemk/packtrack/internal/model"
)

// CreateItems inserts items for every sequence number in [from, to].
// Identifiers that already exist are skipped.
func CreateItems(ctx context.Context, q db.Querier, packID string, from, to int) error {
	if from < 1 {
		return fmt.Errorf("creating items: sequence must start at 1, got %d", from)
	}

	for seq := from; seq <= to; seq++ {
		_, err := q.ExecContext(ctx,
			`INSERT INTO items (id, pack_id) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			ident.ItemID(packID, seq), packID,
		)
		if err != nil {
			return fmt.Errorf("creating item %d: %w", seq, err)
		}
	}
	return nil
}

// DeleteOldestItems removes the n items of a pack with the smallest
// identifiers and returns how many were removed.
func DeleteOldestItems(ctx context.Context, q db.Querier, packID string, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	result, err := q.ExecContext(ctx,
		`DELETE FROM items WHERE id IN (
		     SELECT id FROM items WHERE pack_id = ? ORDER BY id LIMIT ?
		 )`,
		packID, n,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting oldest items: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return int(deleted), nil
}

// DeleteItem removes one item and returns the pack it belonged to.
// Returns NotFound if the item does not exist.
func DeleteItem(ctx context.Context, q db.Querier, id string) (string, error) {
	var packID string
	err := q.QueryRowContext(ctx,
		`DELETE FROM items WHERE id = ? RETURNING pack_id`, id,
	).Scan(&packID)
	if err == sql.ErrNoRows {
		return "", apperr.NotFoundf("item %s not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("deleting item: %w", err)
	}
	return packID, nil
}

// CountItemsForPack returns the number of live items owned by a pack.
func CountItemsForPack(ctx context.Context, q db.Querier, packID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE pack_id = ?`, packID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// ListItems returns all items ordered by identifier.
func ListItems(ctx context.Context, q db.Querier) ([]model.Item, error) {
	return queryItems(ctx, q, `SELECT id, pack_id FROM items ORDER BY id`)
}

// ListItemsForPack returns a pack's items ordered by identifier.
func ListItemsForPack(ctx context.Context, q db.Querier, packID string) ([]model.Item, error) {
	return queryItems(ctx, q, `SELECT id, pack_id FROM items WHERE pack_id = ? ORDER BY id`, packID)
}

// SearchItems returns items whose identifier or pack identifier contains
// term, ignoring case.
func SearchItems(ctx context.Context, q db.Querier, term string) ([]model.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return queryItems(ctx, q,
		`SELECT id, pack_id FROM items
		 WHERE LOWER(id) LIKE ? ESCAPE '\' OR LOWER(pack_id) LIKE ? ESCAPE '\'
		 ORDER BY id`,
		pattern, pattern,
	)
}

func queryItems(ctx context.Context, q db.Querier, query string, args ...any) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.PackID); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
