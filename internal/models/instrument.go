package models

// Risk tiers for investment instruments.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Instrument is a tradeable investment product. The unit price is treated as
// authoritative at transaction time; there is no historical pricing.
type Instrument struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Risk           string `json:"risk"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}
