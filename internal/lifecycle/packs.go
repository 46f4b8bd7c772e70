package lifecycle

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/model"
	"github.com/erazemk/packtrack/internal/store"
)

// CreatePackWithItems creates a pack, its items 1..ItemCount and its images
// as one unit. A colliding pack identifier is redrawn up to the retry limit.
func (c *Coordinator) CreatePackWithItems(ctx context.Context, in NewPack) (*model.PackView, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	price, err := c.parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= c.retries; attempt++ {
		id := c.ids.PackID()

		var view *model.PackView
		err := c.inTx(ctx, func(tx *db.Tx) error {
			pack, err := store.CreatePack(ctx, tx, id, in.Brand, in.Category, price, in.ItemCount)
			if err != nil {
				return err
			}
			if err := store.CreateItems(ctx, tx, id, 1, in.ItemCount); err != nil {
				return err
			}
			if err := store.RaiseItemSeq(ctx, tx, id, in.ItemCount); err != nil {
				return err
			}
			pack.LastItemSeq = in.ItemCount

			var imageIDs []int64
			if len(in.Images) > 0 {
				if imageIDs, err = store.AddImages(ctx, tx, id, in.Images); err != nil {
					return err
				}
			}

			view = newPackView(*pack)
			items, err := store.ListItemsForPack(ctx, tx, id)
			if err != nil {
				return err
			}
			for _, item := range items {
				view.Items = append(view.Items, item.ID)
			}
			for i, imgID := range imageIDs {
				view.Images = append(view.Images, model.ImageView{ID: imgID, Data: encodeImage(in.Images[i])})
			}
			return nil
		})
		if apperr.Is(err, apperr.DuplicateKey) {
			c.log.WarnContext(ctx, "pack id collision", "pack_id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, c.fail(ctx, "creating pack", err)
		}

		c.log.InfoContext(ctx, "pack created", "pack_id", id, "items", in.ItemCount, "images", len(in.Images))
		return view, nil
	}

	return nil, c.fail(ctx, "allocating pack id", fmt.Errorf("no free pack id after %d attempts", c.retries))
}

// ListPacks returns every pack with its items and images, newest first.
func (c *Coordinator) ListPacks(ctx context.Context) ([]model.PackView, error) {
	var (
		packs  []model.Pack
		items  []model.Item
		images []model.Image
	)
	err := c.inTx(ctx, func(tx *db.Tx) error {
		var err error
		if packs, err = store.ListPacks(ctx, tx); err != nil {
			return err
		}
		if items, err = store.ListItems(ctx, tx); err != nil {
			return err
		}
		images, err = store.ListImages(ctx, tx)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, "listing packs", err)
	}

	views := make([]model.PackView, len(packs))
	index := make(map[string]*model.PackView, len(packs))
	for i, p := range packs {
		views[i] = *newPackView(p)
		index[p.ID] = &views[i]
	}
	for _, item := range items {
		if v, ok := index[item.PackID]; ok {
			v.Items = append(v.Items, item.ID)
		}
	}
	for _, img := range images {
		if v, ok := index[img.PackID]; ok {
			v.Images = append(v.Images, model.ImageView{ID: img.ID, Data: img.Data})
		}
	}
	return views, nil
}

// ResizePack updates a pack's details and grows or shrinks its items to
// the new count. Growing mints sequence numbers past the highest ever used;
// shrinking removes the items with the smallest identifiers. A sold pack
// must keep its price strictly below the sale amount.
func (c *Coordinator) ResizePack(ctx context.Context, id string, in PackUpdate) (*model.Pack, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	price, err := c.parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	var updated *model.Pack
	var delta int
	err = c.inTx(ctx, func(tx *db.Tx) error {
		pack, err := store.GetPack(ctx, tx, id)
		if err != nil {
			return err
		}
		if pack == nil {
			return apperr.NotFoundf("pack %s not found", id)
		}

		if pack.Status == model.PackStatusSold {
			sale, err := store.EarliestTransactionForPack(ctx, tx, id)
			if err != nil {
				return err
			}
			if sale == nil {
				return apperr.Preconditionf("pack %s is sold but has no sale on record", id)
			}
			if price.GreaterThanOrEqual(sale.Amount) {
				return apperr.Preconditionf("price %s must be lower than the sale amount %s", price, sale.Amount)
			}
		}

		delta = in.ItemCount - pack.NumberOfItems
		switch {
		case delta > 0:
			from, to := pack.LastItemSeq+1, pack.LastItemSeq+delta
			if err := store.CreateItems(ctx, tx, id, from, to); err != nil {
				return err
			}
			if err := store.RaiseItemSeq(ctx, tx, id, to); err != nil {
				return err
			}
		case delta < 0:
			if _, err := store.DeleteOldestItems(ctx, tx, id, -delta); err != nil {
				return err
			}
		}

		count, err := store.CountItemsForPack(ctx, tx, id)
		if err != nil {
			return err
		}
		if count != in.ItemCount {
			return fmt.Errorf("pack %s has %d items after resize, want %d", id, count, in.ItemCount)
		}

		updated, err = store.UpdatePackDetails(ctx, tx, id, in.Brand, in.Category, in.ItemCount, price)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, "resizing pack", err)
	}

	c.log.InfoContext(ctx, "pack updated", "pack_id", id, "items", in.ItemCount, "delta", delta)
	return updated, nil
}

// AddImagesToPack attaches images to an existing pack.
func (c *Coordinator) AddImagesToPack(ctx context.Context, packID string, images [][]byte) ([]int64, error) {
	if len(images) == 0 {
		return nil, apperr.Validationf("no images given")
	}

	var ids []int64
	err := c.inTx(ctx, func(tx *db.Tx) error {
		var err error
		ids, err = store.AddImages(ctx, tx, packID, images)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, "adding images", err)
	}

	c.log.InfoContext(ctx, "images added", "pack_id", packID, "count", len(ids))
	return ids, nil
}

// DeleteImagesByIDs removes images by identifier and returns how many were removed.
func (c *Coordinator) DeleteImagesByIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, apperr.Validationf("no image ids given")
	}

	var n int
	err := c.inTx(ctx, func(tx *db.Tx) error {
		var err error
		n, err = store.DeleteImages(ctx, tx, ids)
		return err
	})
	if err != nil {
		return 0, c.fail(ctx, "deleting images", err)
	}

	c.log.InfoContext(ctx, "images deleted", "requested", len(ids), "deleted", n)
	return n, nil
}

func newPackView(p model.Pack) *model.PackView {
	return &model.PackView{Pack: p, Items: []string{}, Images: []model.ImageView{}}
}

func encodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
