package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single price observation returned by a fetcher.
type PriceSample struct {
	Symbol     string
	Price      decimal.Decimal
	ObservedAt time.Time
}

// Snapshot is a persisted price observation paired with its trend label.
// ID and CreatedAt are assigned by the recorder on save.
type Snapshot struct {
	ID        int64           `json:"id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Trend     Trend           `json:"trend"`
	CreatedAt time.Time       `json:"createdAt"`
}
