package pdf

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	"github.com/invoicegen/invoicegen/internal/domain/pdf"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/samber/lo"
)

const (
	invoiceTemplate = "invoice.html"

	// shown when the invoice owner could not be resolved
	fallbackCustomerName = "Customer"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer turns an invoice into a standalone HTML document
type Renderer interface {
	Render(inv *invoice.Invoice) (string, error)
}

type renderer struct {
	tmpl       *template.Template
	currency   string
	dateLayout string
}

func NewRenderer(cfg *config.Configuration) (Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+invoiceTemplate)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load invoice template").
			Mark(ierr.ErrSystem)
	}

	return &renderer{
		tmpl:       tmpl,
		currency:   cfg.Invoice.CurrencySymbol,
		dateLayout: cfg.Invoice.DateFormat,
	}, nil
}

// Render is deterministic: the same invoice always produces the same bytes.
// Amounts come from the stored invoice and are only formatted here.
func (r *renderer) Render(inv *invoice.Invoice) (string, error) {
	if inv == nil {
		return "", ierr.NewError("invoice is nil").
			WithHint("Error generating PDF").
			Mark(ierr.ErrRender)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, invoiceTemplate, r.toData(inv)); err != nil {
		return "", ierr.WithError(err).
			WithHint("Error generating PDF").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrRender)
	}
	return buf.String(), nil
}

func (r *renderer) toData(inv *invoice.Invoice) *pdf.InvoiceData {
	recipient := pdf.RecipientInfo{Name: fallbackCustomerName}
	if inv.User != nil {
		recipient.Name = lo.Ternary(inv.User.Name != "", inv.User.Name, fallbackCustomerName)
		recipient.Email = inv.User.Email
	}

	items := lo.Map(inv.Products, func(p invoice.Product, _ int) pdf.LineItemData {
		return pdf.LineItemData{
			Name:     p.Name,
			Price:    p.Price.StringFixed(2),
			Quantity: p.Quantity,
			Total:    p.Total.StringFixed(2),
		}
	})

	return &pdf.InvoiceData{
		InvoiceNumber: inv.InvoiceNumber,
		IssuingDate:   inv.CreatedAt.UTC().Format(r.dateLayout),
		Currency:      r.currency,
		TaxRate:       inv.GST.String(),
		Recipient:     recipient,
		LineItems:     items,
		Subtotal:      inv.Subtotal.StringFixed(2),
		TaxAmount:     inv.GSTAmount.StringFixed(2),
		TotalAmount:   inv.TotalAmount.StringFixed(2),
	}
}
