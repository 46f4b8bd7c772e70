package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records the sale of a pack. Profit is fixed at creation.
type Transaction struct {
	ID       int64           `json:"id"`
	PackID   string          `json:"packId"`
	SaleDate time.Time       `json:"saleDate"`
	Amount   decimal.Decimal `json:"amount"`
	Profit   decimal.Decimal `json:"profit"`
}

// SoldStats summarises how many packs are sold.
type SoldStats struct {
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// ProfitStats summarises profit over all recorded sales.
type ProfitStats struct {
	TotalProfit      decimal.Decimal `json:"totalProfit"`
	PercentageProfit decimal.Decimal `json:"percentageProfit"`
}
