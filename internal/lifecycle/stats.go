package lifecycle

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/model"
	"github.com/erazemk/packtrack/internal/store"
)

var hundred = decimal.NewFromInt(100)

// Categories returns the distinct pack categories.
func (c *Coordinator) Categories(ctx context.Context) ([]string, error) {
	categories, err := store.ListCategories(ctx, c.db)
	if err != nil {
		return nil, c.fail(ctx, "listing categories", err)
	}
	return categories, nil
}

// PackCount returns the number of packs.
func (c *Coordinator) PackCount(ctx context.Context) (int, error) {
	n, err := store.CountPacks(ctx, c.db)
	if err != nil {
		return 0, c.fail(ctx, "counting packs", err)
	}
	return n, nil
}

// SoldStats returns how many packs are sold and their share of all packs.
func (c *Coordinator) SoldStats(ctx context.Context) (*model.SoldStats, error) {
	var sold, total int
	err := c.inTx(ctx, func(tx *db.Tx) error {
		var err error
		if sold, err = store.CountPacksByStatus(ctx, tx, model.PackStatusSold); err != nil {
			return err
		}
		total, err = store.CountPacks(ctx, tx)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, "computing sold stats", err)
	}

	stats := &model.SoldStats{Count: sold, Percentage: decimal.Zero}
	if total > 0 {
		stats.Percentage = decimal.NewFromInt(int64(sold)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(2)
	}
	return stats, nil
}

// ProfitStats returns the total profit and its share of the total pack value.
func (c *Coordinator) ProfitStats(ctx context.Context) (*model.ProfitStats, error) {
	var profit, value decimal.Decimal
	err := c.inTx(ctx, func(tx *db.Tx) error {
		var err error
		if profit, err = store.TotalProfit(ctx, tx); err != nil {
			return err
		}
		value, err = store.TotalPackValue(ctx, tx)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, "computing profit stats", err)
	}

	stats := &model.ProfitStats{TotalProfit: profit.Round(2), PercentageProfit: decimal.Zero}
	if !value.IsZero() {
		stats.PercentageProfit = profit.Mul(hundred).Div(value).Round(2)
	}
	return stats, nil
}
