package dto

import (
	"strings"
	"time"

	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/invoicegen/invoicegen/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ProductRequest is a single line of an invoice as submitted by the client
type ProductRequest struct {
	Name     string          `json:"name" validate:"required,max=255"`
	Price    decimal.Decimal `json:"price" swaggertype:"number"`
	Quantity int64           `json:"quantity" validate:"min=1"`
}

type CreateInvoiceRequest struct {
	Products []ProductRequest `json:"products" validate:"dive"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	for i, p := range r.Products {
		if strings.TrimSpace(p.Name) == "" {
			return ierr.NewErrorf("product %d has an empty name", i).
				WithHint("Every product needs a name").
				WithReportableDetails(map[string]any{"index": i}).
				Mark(ierr.ErrValidation)
		}
		if p.Price.IsNegative() {
			return ierr.NewErrorf("product %d has a negative price", i).
				WithHint("Product price cannot be negative").
				WithReportableDetails(map[string]any{
					"index": i,
					"price": p.Price.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// ToLineItems converts the request into calculator input
func (r *CreateInvoiceRequest) ToLineItems() []invoice.LineItemInput {
	return lo.Map(r.Products, func(p ProductRequest, _ int) invoice.LineItemInput {
		return invoice.LineItemInput{
			Name:     strings.TrimSpace(p.Name),
			Price:    p.Price,
			Quantity: p.Quantity,
		}
	})
}

type ProductResponse struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price" swaggertype:"number"`
	Quantity int64           `json:"quantity"`
	Total    decimal.Decimal `json:"total" swaggertype:"number"`
}

type InvoiceResponse struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	User          *UserResponse     `json:"user,omitempty"`
	Products      []ProductResponse `json:"products"`
	Subtotal      decimal.Decimal   `json:"subtotal" swaggertype:"number"`
	GST           decimal.Decimal   `json:"gst" swaggertype:"number"`
	GSTAmount     decimal.Decimal   `json:"gstAmount" swaggertype:"number"`
	TotalAmount   decimal.Decimal   `json:"totalAmount" swaggertype:"number"`
	InvoiceNumber string            `json:"invoiceNumber"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}

	return &InvoiceResponse{
		ID:     inv.ID,
		UserID: inv.UserID,
		User:   NewUserResponse(inv.User),
		Products: lo.Map(inv.Products, func(p invoice.Product, _ int) ProductResponse {
			return ProductResponse{
				Name:     p.Name,
				Price:    p.Price,
				Quantity: p.Quantity,
				Total:    p.Total,
			}
		}),
		Subtotal:      inv.Subtotal,
		GST:           inv.GST,
		GSTAmount:     inv.GSTAmount,
		TotalAmount:   inv.TotalAmount,
		InvoiceNumber: inv.InvoiceNumber,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// CreateInvoiceResponse wraps a freshly created invoice
type CreateInvoiceResponse struct {
	Success bool             `json:"success"`
	Invoice *InvoiceResponse `json:"invoice"`
}

type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]

// InvoicePdfUrlResponse carries a time limited download link for an archived PDF
type InvoicePdfUrlResponse struct {
	URL string `json:"url"`
}
