package pdf

// InvoiceData is the presentation model of an invoice: every amount is
// already formatted so the template does no arithmetic.
type InvoiceData struct {
	InvoiceNumber string
	IssuingDate   string
	Currency      string
	TaxRate       string

	Recipient RecipientInfo
	LineItems []LineItemData

	Subtotal    string
	TaxAmount   string
	TotalAmount string
}

// RecipientInfo contains customer information for the invoice recipient
type RecipientInfo struct {
	Name  string
	Email string
}

type LineItemData struct {
	Name     string
	Price    string
	Quantity int64
	Total    string
}
