package types

// InvoiceFilter scopes invoice listings to a single owner
type InvoiceFilter struct {
	QueryFilter
	UserID string `json:"-" form:"-"`
}

func NewInvoiceFilter(userID string) *InvoiceFilter {
	return &InvoiceFilter{UserID: userID}
}

func (f *InvoiceFilter) Validate() error {
	return f.QueryFilter.Validate()
}
