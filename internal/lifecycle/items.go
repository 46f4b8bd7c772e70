package lifecycle

import (
	"context"
	"strings"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/model"
	"github.com/erazemk/packtrack/internal/store"
)

// CascadeResult reports the outcome of DeleteItemCascade.
type CascadeResult struct {
	PackID string
	// ItemsLeft is the pack's item count after the deletion.
	ItemsLeft int
	// PackRemoved is set when the emptied pack and its dependents were deleted.
	PackRemoved bool
	// CascadeErr holds a failure of the dependent cleanup. The item
	// deletion itself stays committed.
	CascadeErr error
}

// DeleteItemCascade deletes an item and decrements its pack's count. When
// the pack is left empty its images, transactions and the pack itself are
// removed in a second, separate unit of work.
func (c *Coordinator) DeleteItemCascade(ctx context.Context, secret, itemID string) (*CascadeResult, error) {
	if err := c.authorize(ctx, "delete item", secret); err != nil {
		return nil, err
	}

	res := &CascadeResult{}
	err := c.inTx(ctx, func(tx *db.Tx) error {
		packID, err := store.DeleteItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		res.PackID = packID
		res.ItemsLeft, err = store.DecrementItemCount(ctx, tx, packID)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, "deleting item", err)
	}
	c.log.InfoContext(ctx, "item deleted", "item_id", itemID, "pack_id", res.PackID, "items_left", res.ItemsLeft)

	if res.ItemsLeft > 0 {
		return res, nil
	}

	err = c.inTx(ctx, func(tx *db.Tx) error {
		if err := store.DeleteImagesForPack(ctx, tx, res.PackID); err != nil {
			return err
		}
		if err := store.DeleteTransactionsForPack(ctx, tx, res.PackID); err != nil {
			return err
		}
		return store.DeletePack(ctx, tx, res.PackID)
	})
	if err != nil {
		res.CascadeErr = c.fail(ctx, "removing empty pack", err)
		c.log.ErrorContext(ctx, "pack cleanup failed after item deletion", "item_id", itemID, "pack_id", res.PackID)
		return res, nil
	}

	res.PackRemoved = true
	c.log.InfoContext(ctx, "empty pack removed", "pack_id", res.PackID)
	return res, nil
}

// ListItems returns all items ordered by identifier.
func (c *Coordinator) ListItems(ctx context.Context) ([]model.Item, error) {
	items, err := store.ListItems(ctx, c.db)
	if err != nil {
		return nil, c.fail(ctx, "listing items", err)
	}
	return items, nil
}

// SearchItems returns items whose identifier or pack identifier contains
// the query, ignoring case.
func (c *Coordinator) SearchItems(ctx context.Context, query string) ([]model.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validationf("search query is required")
	}

	items, err := store.SearchItems(ctx, c.db, query)
	if err != nil {
		return nil, c.fail(ctx, "searching items", err)
	}
	return items, nil
}
