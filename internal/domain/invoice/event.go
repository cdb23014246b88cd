package invoice

import (
	"encoding/json"
	"time"

	ierr "github.com/invoicegen/invoicegen/internal/errors"
)

const EventInvoiceCreated = "invoice.created"

// CreatedEvent is published after an invoice is persisted
type CreatedEvent struct {
	EventName     string    `json:"event_name"`
	InvoiceID     string    `json:"invoice_id"`
	UserID        string    `json:"user_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewCreatedEvent(inv *Invoice) *CreatedEvent {
	return &CreatedEvent{
		EventName:     EventInvoiceCreated,
		InvoiceID:     inv.ID,
		UserID:        inv.UserID,
		InvoiceNumber: inv.InvoiceNumber,
		Timestamp:     time.Now().UTC(),
	}
}

func ParseCreatedEvent(payload []byte) (*CreatedEvent, error) {
	var event CreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Malformed invoice event").
			Mark(ierr.ErrValidation)
	}
	if event.InvoiceID == "" {
		return nil, ierr.NewError("invoice event without invoice id").
			WithHint("Malformed invoice event").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}
