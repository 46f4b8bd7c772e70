package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pack is a priced batch of inventory subdivided into items.
type Pack struct {
	ID            string          `json:"id"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Status        string          `json:"status"`
	NumberOfItems int             `json:"itemCount"`
	LastItemSeq   int             `json:"-"`
	CreatedDate   time.Time       `json:"createdDate"`
}

// Pack statuses. Status is derived from transaction presence.
const (
	PackStatusNotSold = "Not Sold"
	PackStatusSold    = "Sold"
)

// PackView is the read model returned to callers: a pack with its items and images.
type PackView struct {
	Pack
	Items  []string    `json:"items"`
	Images []ImageView `json:"images"`
}
