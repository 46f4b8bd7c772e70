package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
)

func TestRecordSaleComputesProfit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustCreatePack(t, database, "ABC12345", "60", 1)

	tr, err := RecordSale(ctx, database, "ABC12345", decimal.RequireFromString("100"))
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if !tr.Profit.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected profit 40, got %s", tr.Profit)
	}
	if tr.PackID != "ABC12345" {
		t.Errorf("expected pack ABC12345, got %q", tr.PackID)
	}

	// Profit is fixed at the time of sale.
	UpdatePackDetails(ctx, database, "ABC12345", "Levi's", "Jeans", 1, decimal.NewFromInt(90))
	got, _ := GetTransaction(ctx, database, tr.ID)
	if !got.Profit.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected profit to stay 40, got %s", got.Profit)
	}
}

func TestRecordSaleMissingPack(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := RecordSale(context.Background(), database, "ZZZ99999", decimal.NewFromInt(1))
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustCreatePack(t, database, "ABC12345", "60", 1)
	tr, _ := RecordSale(ctx, database, "ABC12345", decimal.NewFromInt(100))

	packID, err := DeleteTransaction(ctx, database, tr.ID)
	if err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if packID != "ABC12345" {
		t.Errorf("expected pack ABC12345, got %q", packID)
	}

	if _, err := DeleteTransaction(ctx, database, tr.ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestEarliestTransactionForPack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustCreatePack(t, database, "ABC12345", "60", 1)

	none, err := EarliestTransactionForPack(ctx, database, "ABC12345")
	if err != nil {
		t.Fatalf("EarliestTransactionForPack: %v", err)
	}
	if none != nil {
		t.Error("expected nil without transactions")
	}

	first, _ := RecordSale(ctx, database, "ABC12345", decimal.NewFromInt(100))
	RecordSale(ctx, database, "ABC12345", decimal.NewFromInt(80))

	got, _ := EarliestTransactionForPack(ctx, database, "ABC12345")
	if got.ID != first.ID {
		t.Errorf("expected earliest transaction %d, got %d", first.ID, got.ID)
	}

	if n, _ := CountTransactionsForPack(ctx, database, "ABC12345"); n != 2 {
		t.Errorf("expected 2 transactions, got %d", n)
	}
}

func TestTotalProfit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	total, _ := TotalProfit(ctx, database)
	if !total.IsZero() {
		t.Errorf("expected zero profit, got %s", total)
	}

	mustCreatePack(t, database, "ABC12345", "60", 1)
	mustCreatePack(t, database, "AAA11111", "10.25", 1)
	RecordSale(ctx, database, "ABC12345", decimal.NewFromInt(100))
	RecordSale(ctx, database, "AAA11111", decimal.RequireFromString("5"))

	total, _ = TotalProfit(ctx, database)
	if !total.Round(2).Equal(decimal.RequireFromString("34.75")) {
		t.Errorf("expected profit 34.75, got %s", total)
	}

	txs, _ := ListTransactions(ctx, database)
	if len(txs) != 2 {
		t.Errorf("expected 2 transactions, got %d", len(txs))
	}

	DeleteTransactionsForPack(ctx, database, "ABC12345")
	txs, _ = ListTransactions(ctx, database)
	if len(txs) != 1 {
		t.Errorf("expected 1 transaction after pack cleanup, got %d", len(txs))
	}
}

func TestTotalProfitIsExact(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustCreatePack(t, database, "ABC12345", "1", 1)
	mustCreatePack(t, database, "AAA11111", "1", 1)
	if _, err := RecordSale(ctx, database, "ABC12345", decimal.RequireFromString("1.1")); err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if _, err := RecordSale(ctx, database, "AAA11111", decimal.RequireFromString("1.2")); err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	total, err := TotalProfit(ctx, database)
	if err != nil {
		t.Fatalf("TotalProfit: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("expected profit exactly 0.3, got %s", total)
	}
}
