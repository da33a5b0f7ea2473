package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a discount code managed through the admin console
type Coupon struct {
	ID           string          `json:"id,omitzero"`
	Code         string          `json:"code"`
	DiscountType string          `json:"discountType"` // "percentage" or "fixed"
	Value        decimal.Decimal `json:"value"`
	MinOrder     decimal.Decimal `json:"minOrder"`
	ExpiresAt    *time.Time      `json:"expiresAt,omitempty"`
	Active       bool            `json:"active"`
}
