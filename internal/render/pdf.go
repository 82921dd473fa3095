// Package render produces the printable invoice document. It is a read-only
// consumer of finalized invoices: the only write it performs is bumping the
// print counter, never money fields or status.
package render

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
)

// Renderer writes invoice PDFs.
type Renderer struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewRenderer constructs a PDF renderer over the given store.
func NewRenderer(store repository.Store, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{store: store, logger: logger, now: time.Now}
}

// RenderInvoice writes the invoice document to w, records the print and
// returns the rendered invoice.
func (r *Renderer) RenderInvoice(ctx context.Context, invoiceID string, w io.Writer) (*models.Invoice, error) {
	inv, err := r.store.RecordPrint(ctx, invoiceID, r.now())
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "INVOICE")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, "Invoice Number: "+inv.InvoiceNumber)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date: "+inv.CreatedAt.Format("02/01/2006"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Time: "+inv.CreatedAt.Format("15:04:05"))
	pdf.Ln(10)

	if inv.CustomerName != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, "Bill To:")
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 7, inv.CustomerName)
		pdf.Ln(7)
		if inv.CustomerPhone != "" {
			pdf.Cell(0, 7, "Phone: "+inv.CustomerPhone)
			pdf.Ln(7)
		}
		if inv.CustomerEmail != "" {
			pdf.Cell(0, 7, "Email: "+inv.CustomerEmail)
			pdf.Ln(7)
		}
		if inv.CustomerAddress != "" {
			pdf.Cell(0, 7, "Address: "+inv.CustomerAddress)
			pdf.Ln(7)
		}
		pdf.Ln(3)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Rate", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 8, "GST%", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range inv.Items {
		pdf.CellFormat(70, 8, item.ProductName, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.3g", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", item.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.1f%%", item.GSTRate), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", item.TotalAmount), "", 1, "R", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 7, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", inv.Subtotal), "", 1, "R", false, 0, "")
	pdf.CellFormat(150, 7, "GST:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", inv.TotalGST), "", 1, "R", false, 0, "")
	pdf.CellFormat(150, 7, "Total:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", inv.TotalAmount), "", 1, "R", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 7, "Thank you for your business!")

	if err := pdf.Output(w); err != nil {
		return nil, fmt.Errorf("write invoice pdf: %w", err)
	}

	r.logger.Info("invoice rendered",
		zap.String("invoice_id", invoiceID),
		zap.Int("print_count", inv.PrintCount))
	return inv, nil
}

// FileName returns the download name for an invoice document.
func FileName(inv *models.Invoice) string {
	return fmt.Sprintf("invoice-%s.pdf", inv.InvoiceNumber)
}
