package dto

import "github.com/shopspring/decimal"

// MethodTotal is one slice of the per-payment-method breakdown.
type MethodTotal struct {
	Method string          `json:"method"`
	Total  decimal.Decimal `json:"total"`
}

type TopProduct struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MonthlyReportResponse aggregates non-voided sales of one calendar month.
type MonthlyReportResponse struct {
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	SaleCount   int64           `json:"sale_count"`
	ByMethod    []MethodTotal   `json:"by_method"`
	TopProducts []TopProduct    `json:"top_products"`
	GoodsCost   decimal.Decimal `json:"goods_cost"`
	Expenses    decimal.Decimal `json:"expenses"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	MarginPct   decimal.Decimal `json:"margin_pct"`
}

// LowStockItem flags a product at or below its minimum threshold.
type LowStockItem struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	StockActual  decimal.Decimal `json:"stock_actual"`
	StockMinimum decimal.Decimal `json:"stock_minimum"`
}

type StockMovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	StockBefore decimal.Decimal `json:"stock_before"`
	StockAfter  decimal.Decimal `json:"stock_after"`
	Reason      string          `json:"reason"`
	CreatedAt   string          `json:"created_at"`
}
