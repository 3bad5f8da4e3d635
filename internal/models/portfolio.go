package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a position one account owns in one instrument. Quantity is a
// decimal because instruments support fractional units; a holding row only
// exists while its quantity is positive.
type Holding struct {
	AccountID    string          `json:"account_id"`
	InstrumentID string          `json:"instrument_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	CreatedAt    time.Time       `json:"created_at"`
	ModifiedAt   time.Time       `json:"modified_at"`
}

// HoldingView is a holding joined with its instrument for API responses.
type HoldingView struct {
	InstrumentID string          `json:"instrument_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Risk         string          `json:"risk"`
	UnitPrice    float64         `json:"unit_price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Value        float64         `json:"value"`
}

// Portfolio is an account's full position list plus its cash balance.
type Portfolio struct {
	AccountID string        `json:"account_id"`
	Balance   float64       `json:"balance"`
	Holdings  []HoldingView `json:"holdings"`
}
