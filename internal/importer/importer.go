// Package importer parses bulk catalog files (CSV and XLSX) into product
// rows. Parsing is strict about the required columns and forgiving about
// header spelling; all price and stock figures are decoded as decimals from
// the original cell text, never through floats.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/dto"
)

// Column keys after header normalization.
const (
	colCode     = "code"
	colName     = "name"
	colSale     = "sale_price"
	colCost     = "cost_price"
	colStock    = "stock"
	colCategory = "category"
)

// headerAliases maps the header spellings seen in real catalog files onto
// canonical column keys.
var headerAliases = map[string]string{
	"code":       colCode,
	"codigo":     colCode,
	"sku":        colCode,
	"barcode":    colCode,
	"name":       colName,
	"nombre":     colName,
	"product":    colName,
	"sale_price": colSale,
	"price":      colSale,
	"precio":     colSale,
	"cost_price": colCost,
	"cost":       colCost,
	"costo":      colCost,
	"stock":      colStock,
	"quantity":   colStock,
	"category":   colCategory,
	"categoria":  colCategory,
}

// ParseCSV reads a catalog CSV with a header row.
func ParseCSV(r io.Reader) ([]dto.ProductRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apierror.Validation("file", "malformed CSV: "+err.Error())
	}
	return parseRecords(records)
}

// ParseXLSX reads the first sheet of a catalog spreadsheet.
func ParseXLSX(r io.Reader) ([]dto.ProductRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierror.Validation("file", "malformed XLSX: "+err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apierror.Validation("file", "workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apierror.Validation("file", "unreadable sheet: "+err.Error())
	}
	return parseRecords(records)
}

func parseRecords(records [][]string) ([]dto.ProductRow, error) {
	if len(records) < 2 {
		return nil, apierror.Validation("file", "needs a header row and at least one product row")
	}

	columns, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ProductRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row, err := parseRow(columns, record)
		if err != nil {
			return nil, apierror.Validation("file", fmt.Sprintf("row %d: %v", i+2, err))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, apierror.Validation("file", "no product rows found")
	}
	return rows, nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if canonical, ok := headerAliases[key]; ok {
			columns[canonical] = i
		}
	}
	for _, required := range []string{colCode, colName, colSale} {
		if _, ok := columns[required]; !ok {
			return nil, apierror.Validation("file", "missing required column: "+required)
		}
	}
	return columns, nil
}

func parseRow(columns map[string]int, record []string) (dto.ProductRow, error) {
	row := dto.ProductRow{
		Code: cell(record, columns[colCode]),
		Name: cell(record, columns[colName]),
	}
	if row.Code == "" {
		return row, fmt.Errorf("empty code")
	}
	if row.Name == "" {
		return row, fmt.Errorf("empty name")
	}

	sale, err := parseDecimal(cell(record, columns[colSale]))
	if err != nil {
		return row, fmt.Errorf("sale price: %v", err)
	}
	row.SalePrice = sale

	if idx, ok := columns[colCost]; ok {
		if raw := cell(record, idx); raw != "" {
			cost, err := parseDecimal(raw)
			if err != nil {
				return row, fmt.Errorf("cost price: %v", err)
			}
			row.CostPrice = &cost
		}
	}
	if idx, ok := columns[colStock]; ok {
		if raw := cell(record, idx); raw != "" {
			stock, err := parseDecimal(raw)
			if err != nil {
				return row, fmt.Errorf("stock: %v", err)
			}
			row.Stock = &stock
		}
	}
	if idx, ok := columns[colCategory]; ok {
		if raw := cell(record, idx); raw != "" {
			row.Category = &raw
		}
	}
	return row, nil
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	// Accept comma decimal separators from spreadsheet locales.
	raw = strings.ReplaceAll(raw, ",", ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}
	return d, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
