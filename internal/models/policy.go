package models

import "github.com/shopspring/decimal"

// Well-known policy labels. School and car-owner policies are keyed by the owner's email.
const (
	PolicyDriver   = "driver"
	PolicyTransfer = "transfer"
)

// FeeSplitPolicy is a named percentage rate used for fees and revenue splits
type FeeSplitPolicy struct {
	Label       string          `json:"label"`
	Rate        decimal.Decimal `json:"rate"` // 0.0 - 1.0
	Description string          `json:"description"`
}
