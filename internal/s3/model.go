package s3

import "fmt"

type DocumentKind string

const (
	DocumentKindPdf DocumentKind = "pdf"
)

// Document is a rendered file archived under the id of the entity it belongs to
type Document struct {
	ID       string
	Data     []byte
	Kind     DocumentKind
	FileName string
}

func NewInvoicePdf(invoiceID, invoiceNumber string, data []byte) *Document {
	return &Document{
		ID:       invoiceID,
		Data:     data,
		Kind:     DocumentKindPdf,
		FileName: InvoiceFileName(invoiceNumber),
	}
}

// InvoiceFileName is the download name of an invoice pdf
func InvoiceFileName(invoiceNumber string) string {
	return fmt.Sprintf("invoice-%s.pdf", invoiceNumber)
}

func (d *Document) ContentType() string {
	switch d.Kind {
	case DocumentKindPdf:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
