package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/repository"
)

const topProductLimit = 5

// ReportService produces the monthly profit report, low-stock listing, the
// stock audit trail and the XLSX exports.
type ReportService struct {
	reports  repository.ReportRepository
	products repository.ProductRepository
	stockLog repository.StockMovementRepository
}

func NewReportService(
	reports repository.ReportRepository,
	products repository.ProductRepository,
	stockLog repository.StockMovementRepository,
) *ReportService {
	return &ReportService{reports: reports, products: products, stockLog: stockLog}
}

// Monthly aggregates the month's non-voided sales: totals per payment
// method, top products by quantity, goods cost (current catalog cost) and
// net profit after recorded expenses.
func (s *ReportService) Monthly(ctx context.Context, year, month int) (*dto.MonthlyReportResponse, error) {
	if month < 1 || month > 12 {
		return nil, apierror.Validation("month", "must be 1-12")
	}
	if year < 2000 || year > time.Now().Year()+1 {
		return nil, apierror.Validation("year", "out of range")
	}

	sales, err := s.reports.SalesByMonth(ctx, year, month)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	expenses, err := s.reports.ExpensesByMonth(ctx, year, month)
	if err != nil {
		return nil, apierror.Transient(err)
	}

	report := &dto.MonthlyReportResponse{
		Month:      month,
		Year:       year,
		TotalSales: decimal.Zero,
		SaleCount:  int64(len(sales)),
		Expenses:   expenses,
		GoodsCost:  decimal.Zero,
	}

	byMethod := map[string]decimal.Decimal{}
	type productAgg struct {
		name string
		qty  decimal.Decimal
	}
	byProduct := map[uuid.UUID]*productAgg{}

	for i := range sales {
		sale := &sales[i]
		report.TotalSales = report.TotalSales.Add(sale.Total)
		byMethod[sale.PaymentMethod] = byMethod[sale.PaymentMethod].Add(sale.Total)
		for _, line := range sale.Lines {
			if line.Product != nil {
				report.GoodsCost = report.GoodsCost.Add(line.Product.CostPrice.Mul(line.Quantity).Round(2))
				agg, ok := byProduct[line.ProductID]
				if !ok {
					agg = &productAgg{name: line.Product.Name}
					byProduct[line.ProductID] = agg
				}
				agg.qty = agg.qty.Add(line.Quantity)
			}
		}
	}

	for method, total := range byMethod {
		report.ByMethod = append(report.ByMethod, dto.MethodTotal{Method: method, Total: total})
	}
	sort.Slice(report.ByMethod, func(i, j int) bool {
		return report.ByMethod[i].Total.GreaterThan(report.ByMethod[j].Total)
	})

	for _, agg := range byProduct {
		report.TopProducts = append(report.TopProducts, dto.TopProduct{Name: agg.name, Quantity: agg.qty})
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		return report.TopProducts[i].Quantity.GreaterThan(report.TopProducts[j].Quantity)
	})
	if len(report.TopProducts) > topProductLimit {
		report.TopProducts = report.TopProducts[:topProductLimit]
	}

	report.GrossProfit = report.TotalSales.Sub(report.GoodsCost)
	report.NetProfit = report.GrossProfit.Sub(report.Expenses)
	if report.TotalSales.IsPositive() {
		report.MarginPct = report.NetProfit.Div(report.TotalSales).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return report, nil
}

// LowStock lists active products at or below their minimum threshold.
func (s *ReportService) LowStock(ctx context.Context) ([]dto.LowStockItem, error) {
	products, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	out := make([]dto.LowStockItem, 0, len(products))
	for _, p := range products {
		out = append(out, dto.LowStockItem{
			Code:         p.Code,
			Name:         p.Name,
			StockActual:  p.StockActual,
			StockMinimum: p.StockMinimum,
		})
	}
	return out, nil
}

// StockHistory returns the audit trail of one product, newest first.
func (s *ReportService) StockHistory(ctx context.Context, productID uuid.UUID, limit int) ([]dto.StockMovementResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	movs, err := s.stockLog.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Type:        m.Type,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

// ExportProductsXLSX renders the full active catalog as a spreadsheet.
func (s *ReportService) ExportProductsXLSX(ctx context.Context) (*excelize.File, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, apierror.Transient(err)
	}

	f := excelize.NewFile()
	sheet := "Products"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Code", "Name", "Category", "Unit", "Cost", "Price", "Stock", "Minimum"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for row, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		values := []interface{}{
			p.Code, p.Name, category, p.SaleUnit,
			p.CostPrice.InexactFloat64(), p.SalePrice.InexactFloat64(),
			p.StockActual.InexactFloat64(), p.StockMinimum.InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	return f, nil
}

// ExportMonthlyXLSX renders the monthly report as a spreadsheet.
func (s *ReportService) ExportMonthlyXLSX(ctx context.Context, year, month int) (*excelize.File, error) {
	report, err := s.Monthly(ctx, year, month)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Report"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{
		{"Month", report.Month, "Year", report.Year},
		{"Total sales", report.TotalSales.InexactFloat64()},
		{"Sale count", report.SaleCount},
		{"Goods cost", report.GoodsCost.InexactFloat64()},
		{"Expenses", report.Expenses.InexactFloat64()},
		{"Gross profit", report.GrossProfit.InexactFloat64()},
		{"Net profit", report.NetProfit.InexactFloat64()},
		{"Margin %", report.MarginPct.InexactFloat64()},
		{},
		{"Payment method", "Total"},
	}
	for _, mt := range report.ByMethod {
		rows = append(rows, []interface{}{mt.Method, mt.Total.InexactFloat64()})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Top product", "Quantity"})
	for _, tp := range report.TopProducts {
		rows = append(rows, []interface{}{tp.Name, tp.Quantity.InexactFloat64()})
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	return f, nil
}
