package testutil

import (
	"context"

	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	"github.com/invoicegen/invoicegen/internal/pdf"
	"github.com/stretchr/testify/mock"
)

var _ pdf.Generator = (*MockPDFGenerator)(nil)

// SamplePDF starts with the PDF magic bytes so content sniffing accepts it
var SamplePDF = []byte("%PDF-1.4\n%mock invoice\n%%EOF\n")

type MockPDFGenerator struct {
	mock.Mock
}

func NewMockPDFGenerator() *MockPDFGenerator {
	return &MockPDFGenerator{}
}

// RenderInvoicePdf implements pdf.Generator.
func (m *MockPDFGenerator) RenderInvoicePdf(ctx context.Context, inv *invoice.Invoice) ([]byte, error) {
	args := m.Called(ctx, inv)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}
