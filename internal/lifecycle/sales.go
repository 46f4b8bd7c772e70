package lifecycle

import (
	"context"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/model"
	"github.com/erazemk/packtrack/internal/store"
)

// MarkSold records a sale of a pack for amount and marks the pack sold.
func (c *Coordinator) MarkSold(ctx context.Context, secret, packID, amount string) (*model.Transaction, error) {
	if err := c.authorize(ctx, "mark sold", secret); err != nil {
		return nil, err
	}

	var sale *model.Transaction
	err := c.inTx(ctx, func(tx *db.Tx) error {
		pack, err := store.GetPack(ctx, tx, packID)
		if err != nil {
			return err
		}
		if pack == nil {
			return apperr.NotFoundf("pack %s not found", packID)
		}

		value, err := ParseAmount("amount", amount)
		if err != nil {
			return err
		}

		if sale, err = store.RecordSale(ctx, tx, packID, value); err != nil {
			return err
		}
		_, err = syncPackStatus(ctx, tx, packID)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, "marking pack sold", err)
	}

	c.log.InfoContext(ctx, "pack sold", "pack_id", packID, "transaction_id", sale.ID, "amount", sale.Amount, "profit", sale.Profit)
	return sale, nil
}

// ReverseSale deletes a transaction and recomputes its pack's status.
// It returns the pack as it is afterwards.
func (c *Coordinator) ReverseSale(ctx context.Context, secret string, transactionID int64) (*model.Pack, error) {
	if err := c.authorize(ctx, "reverse sale", secret); err != nil {
		return nil, err
	}

	var pack *model.Pack
	err := c.inTx(ctx, func(tx *db.Tx) error {
		packID, err := store.DeleteTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if _, err := syncPackStatus(ctx, tx, packID); err != nil {
			return err
		}
		pack, err = store.GetPack(ctx, tx, packID)
		return err
	})
	if err != nil {
		return nil, c.fail(ctx, "reversing sale", err)
	}

	if pack != nil {
		c.log.InfoContext(ctx, "sale reversed", "transaction_id", transactionID, "pack_id", pack.ID, "status", pack.Status)
	}
	return pack, nil
}

// ListTransactions returns all transactions ordered by identifier.
func (c *Coordinator) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	txs, err := store.ListTransactions(ctx, c.db)
	if err != nil {
		return nil, c.fail(ctx, "listing transactions", err)
	}
	return txs, nil
}

// syncPackStatus derives a pack's status from its transactions and writes
// it. It is the only place that sets a pack's status.
func syncPackStatus(ctx context.Context, q db.Querier, packID string) (string, error) {
	n, err := store.CountTransactionsForPack(ctx, q, packID)
	if err != nil {
		return "", err
	}

	status := model.PackStatusNotSold
	if n > 0 {
		status = model.PackStatusSold
	}
	if err := store.SetPackStatus(ctx, q, packID, status); err != nil {
		return "", err
	}
	return status, nil
}
