package invoice

import (
	"context"

	"github.com/invoicegen/invoicegen/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create stores a new invoice. A clash on invoice number is reported as ierr.ErrAlreadyExists
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID with its user resolved when it still exists
	Get(ctx context.Context, id string) (*Invoice, error)

	// List retrieves a user's invoices, newest first
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the number of invoices matching the filter
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
}
