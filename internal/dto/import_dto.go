package dto

import "github.com/shopspring/decimal"

// ProductRow is one parsed row of a bulk catalog file. Optional columns stay
// nil so the upsert can distinguish "absent" from "zero".
type ProductRow struct {
	Code      string
	Name      string
	SalePrice decimal.Decimal
	CostPrice *decimal.Decimal
	// Stock OVERWRITES the product's current stock when present (matches the
	// historical importer behavior — not an additive adjustment).
	Stock    *decimal.Decimal
	Category *string
}

type ImportResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	// StockOverwritten counts rows whose stock column replaced live stock.
	StockOverwritten int `json:"stock_overwritten"`
}
