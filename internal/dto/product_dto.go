package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Code        string  `json:"code"         validate:"required,min=1,max=50"`
	Name        string  `json:"name"         validate:"required,min=2,max=120"`
	Description *string `json:"description"`
	// Category is resolved by name, created on first use.
	Category     *string         `json:"category"`
	SaleUnit     string          `json:"sale_unit"     validate:"omitempty,oneof=unit weight"`
	CostPrice    decimal.Decimal `json:"cost_price"    validate:"min=0"`
	SalePrice    decimal.Decimal `json:"sale_price"    validate:"required,gt=0"`
	StockActual  decimal.Decimal `json:"stock_actual"  validate:"min=0"`
	StockMinimum decimal.Decimal `json:"stock_minimum" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"          validate:"omitempty,min=2,max=120"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category"`
	SaleUnit     *string          `json:"sale_unit"     validate:"omitempty,oneof=unit weight"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
	StockMinimum *decimal.Decimal `json:"stock_minimum"`
}

type AdjustStockRequest struct {
	// Delta is signed: positive adds stock, negative removes it.
	Delta  decimal.Decimal `json:"delta"  validate:"required"`
	Reason string          `json:"reason" validate:"required,min=3"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Code     string `form:"code"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"` // "false" = inactive, "all" = everything, default active
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  *string         `json:"description"`
	Category     *string         `json:"category"`
	SaleUnit     string          `json:"sale_unit"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	StockActual  decimal.Decimal `json:"stock_actual"`
	StockMinimum decimal.Decimal `json:"stock_minimum"`
	Active       bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PriceCheckResponse is returned by the public price endpoint (no auth).
type PriceCheckResponse struct {
	Name           string          `json:"name"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	StockAvailable decimal.Decimal `json:"stock_available"`
	Category       *string         `json:"category"`
}
