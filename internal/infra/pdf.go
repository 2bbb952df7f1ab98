package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/yanarios/sistema-kiosco/internal/model"
)

// ReceiptRenderer writes sale receipts as PDF files under the configured
// storage path.
type ReceiptRenderer struct {
	storagePath string
	storeName   string
}

func NewReceiptRenderer(storagePath, storeName string) *ReceiptRenderer {
	return &ReceiptRenderer{storagePath: storagePath, storeName: storeName}
}

// Render produces the PDF for a sale (lines must be preloaded with their
// products) and returns the path of the written file.
func (r *ReceiptRenderer) Render(sale *model.Sale) (string, error) {
	if err := os.MkdirAll(r.storagePath, 0o755); err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, r.storeName)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Receipt "+sale.ID.String())
	pdf.Ln(6)
	pdf.Cell(0, 6, sale.CreatedAt.Format(time.RFC1123))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Payment: "+sale.PaymentMethod)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(80, 7, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Unit price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range sale.Lines {
		name := line.ProductID.String()
		if line.Product != nil {
			name = line.Product.Name
		}
		pdf.CellFormat(80, 7, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, line.Quantity.String(), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, line.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, line.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(145, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, sale.Total.StringFixed(2), "T", 1, "R", false, 0, "")

	if sale.Voided {
		pdf.Ln(6)
		pdf.SetTextColor(200, 0, 0)
		pdf.Cell(0, 8, "VOIDED")
		pdf.SetTextColor(0, 0, 0)
	}

	path := filepath.Join(r.storagePath, fmt.Sprintf("receipt-%s.pdf", sale.ID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}
