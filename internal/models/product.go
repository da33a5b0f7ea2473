package models

import "github.com/shopspring/decimal"

// Product represents a catalog item the POS terminal can sell
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}
