package testutil

import (
	"context"
	"sync"

	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	"github.com/invoicegen/invoicegen/internal/domain/user"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/types"
)

var _ invoice.Repository = (*InMemoryInvoiceStore)(nil)

// InMemoryInvoiceStore implements invoice.Repository with the same uniqueness
// rule on invoice numbers as the database
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu      sync.Mutex
	numbers map[string]string
	users   user.Repository

	// CreateErr, when set, is returned by Create for the next N calls given by FailCreates
	CreateErr   error
	FailCreates int
}

// NewInMemoryInvoiceStore resolves invoice owners through users when it is non-nil
func NewInMemoryInvoiceStore(users user.Repository) *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		numbers:       make(map[string]string),
		users:         users,
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	c.Products = append(invoice.Products(nil), inv.Products...)
	c.User = nil
	return &c
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreates > 0 && s.CreateErr != nil {
		s.FailCreates--
		return s.CreateErr
	}

	if _, taken := s.numbers[inv.InvoiceNumber]; taken {
		return ierr.NewErrorf("invoice number %s already exists", inv.InvoiceNumber).
			WithHint("Invoice number already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv)); err != nil {
		return err
	}
	s.numbers[inv.InvoiceNumber] = inv.ID
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invoice %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	result := copyInvoice(inv)
	if s.users != nil {
		if u, err := s.users.GetByID(ctx, inv.UserID); err == nil {
			result.User = u
		}
	}
	return result, nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter("")
	}
	items := s.InMemoryStore.List(ctx,
		invoiceFilterFn(filter),
		func(a, b *invoice.Invoice) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID > b.ID
			}
			return a.CreatedAt.After(b.CreatedAt)
		},
		filter.GetOffset(),
		filter.GetLimit(),
	)

	result := make([]*invoice.Invoice, 0, len(items))
	for _, inv := range items {
		result = append(result, copyInvoice(inv))
	}
	return result, nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, invoiceFilterFn(filter)), nil
}

func (s *InMemoryInvoiceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InMemoryStore.Clear()
	s.numbers = make(map[string]string)
}

func invoiceFilterFn(filter *types.InvoiceFilter) FilterFunc[*invoice.Invoice] {
	return func(_ context.Context, inv *invoice.Invoice) bool {
		return filter == nil || filter.UserID == "" || inv.UserID == filter.UserID
	}
}
