package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/model"
)

// AddImages attaches payloads to a pack and returns the assigned identifiers
// in input order. Returns NotFound if the pack does not exist.
func AddImages(ctx context.Context, q db.Querier, packID string, payloads [][]byte) ([]int64, error) {
	pack, err := GetPack(ctx, q, packID)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, apperr.NotFoundf("pack %s not found", packID)
	}

	ids := make([]int64, 0, len(payloads))
	for _, data := range payloads {
		var id int64
		if err := q.QueryRowContext(ctx,
			`INSERT INTO images (pack_id, data) VALUES (?, ?) RETURNING id`,
			packID, data,
		).Scan(&id); err != nil {
			return nil, fmt.Errorf("adding image: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// deleteImagesBatch bounds the bind parameters of one DELETE statement,
// well under both SQLite's and Postgres's limits.
const deleteImagesBatch = 500

// DeleteImages removes images by identifier and returns how many were removed.
// Long id lists are deleted in batches; run it in a transaction to keep the
// batches atomic.
func DeleteImages(ctx context.Context, q db.Querier, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, apperr.Validationf("no image ids given")
	}

	deleted := 0
	for batch := range slices.Chunk(ids, deleteImagesBatch) {
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")

		result, err := q.ExecContext(ctx,
			`DELETE FROM images WHERE id IN (`+placeholders+`)`, args...,
		)
		if err != nil {
			return 0, fmt.Errorf("deleting images: %w", err)
		}
		n, _ := result.RowsAffected()
		deleted += int(n)
	}
	return deleted, nil
}

// DeleteImagesForPack removes every image of a pack.
func DeleteImagesForPack(ctx context.Context, q db.Querier, packID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM images WHERE pack_id = ?`, packID)
	if err != nil {
		return fmt.Errorf("deleting pack images: %w", err)
	}
	return nil
}

// CountImagesForPack returns the number of images attached to a pack.
func CountImagesForPack(ctx context.Context, q db.Querier, packID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM images WHERE pack_id = ?`, packID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting images: %w", err)
	}
	return n, nil
}

// ListImages returns all images ordered by identifier, with base64 payloads.
func ListImages(ctx context.Context, q db.Querier) ([]model.Image, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, pack_id, data FROM images ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	images := []model.Image{}
	for rows.Next() {
		var img model.Image
		var data []byte
		if err := rows.Scan(&img.ID, &img.PackID, &data); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		img.Data = base64.StdEncoding.EncodeToString(data)
		images = append(images, img)
	}
	return images, rows.Err()
}
