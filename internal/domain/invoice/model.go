package invoice

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/invoicegen/invoicegen/internal/domain/user"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/shopspring/decimal"
)

// Product is a line item embedded in an invoice, never stored on its own
type Product struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// Products is stored as a single JSONB column
type Products []Product

func (p Products) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

func (p *Products) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = Products{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return ierr.NewErrorf("unsupported products column type %T", src).
			Mark(ierr.ErrDatabase)
	}
	return json.Unmarshal(data, p)
}

// Invoice is immutable once created
type Invoice struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"userId"`
	User          *user.User      `db:"-" json:"user,omitempty"`
	Products      Products        `db:"products" json:"products"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	GST           decimal.Decimal `db:"gst" json:"gst"`
	GSTAmount     decimal.Decimal `db:"gst_amount" json:"gstAmount"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	InvoiceNumber string          `db:"invoice_number" json:"invoiceNumber"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// New builds an invoice for userID with totals computed at the given tax rate.
// The invoice number is assigned separately so it can be regenerated on conflict.
func New(userID string, items []LineItemInput, taxRatePercent decimal.Decimal) *Invoice {
	totals := CalculateTotals(items, taxRatePercent)
	now := time.Now().UTC()
	return &Invoice{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		UserID:      userID,
		Products:    totals.Products,
		Subtotal:    totals.Subtotal,
		GST:         taxRatePercent,
		GSTAmount:   totals.TaxAmount,
		TotalAmount: totals.Total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// BelongsTo reports whether the invoice is owned by userID
func (i *Invoice) BelongsTo(userID string) bool {
	return i != nil && userID != "" && i.UserID == userID
}
