package pdf

import (
	"context"

	"github.com/invoicegen/invoicegen/internal/chrome"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
)

// Generator defines the interface for PDF generation operations
type Generator interface {
	RenderInvoicePdf(ctx context.Context, inv *invoice.Invoice) ([]byte, error)
}

type service struct {
	renderer Renderer
	exporter chrome.Exporter
}

// NewGenerator creates a new PDF service
func NewGenerator(renderer Renderer, exporter chrome.Exporter) Generator {
	return &service{
		renderer: renderer,
		exporter: exporter,
	}
}

// RenderInvoicePdf renders the invoice to HTML and prints it through the browser exporter
func (s *service) RenderInvoicePdf(ctx context.Context, inv *invoice.Invoice) ([]byte, error) {
	html, err := s.renderer.Render(inv)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, html)
}
