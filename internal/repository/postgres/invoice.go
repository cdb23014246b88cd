package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/invoicegen/invoicegen/internal/cache"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	"github.com/invoicegen/invoicegen/internal/domain/user"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/postgres"
	"github.com/invoicegen/invoicegen/internal/types"
)

const invoiceNumberIndex = "idx_invoices_invoice_number"

const invoiceSelect = `
	SELECT i.id, i.user_id, i.products, i.subtotal, i.gst, i.gst_amount, i.total_amount,
		i.invoice_number, i.created_at, i.updated_at,
		u.name AS user_name, u.email AS user_email,
		u.created_at AS user_created_at, u.updated_at AS user_updated_at
	FROM invoices i
	LEFT JOIN users u ON u.id = i.user_id
`

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

// invoiceRow is an invoice joined with its (possibly deleted) user
type invoiceRow struct {
	invoice.Invoice
	UserName      sql.NullString `db:"user_name"`
	UserEmail     sql.NullString `db:"user_email"`
	UserCreatedAt sql.NullTime   `db:"user_created_at"`
	UserUpdatedAt sql.NullTime   `db:"user_updated_at"`
}

func (r invoiceRow) toDomain() *invoice.Invoice {
	inv := r.Invoice
	if r.UserName.Valid {
		inv.User = &user.User{
			ID:        inv.UserID,
			Name:      r.UserName.String,
			Email:     r.UserEmail.String,
			Status:    types.StatusActive,
			CreatedAt: r.UserCreatedAt.Time,
			UpdatedAt: r.UserUpdatedAt.Time,
		}
	}
	return &inv
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger, cache: cache}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	span := postgres.StartRepositorySpan(ctx, "invoice", "create", map[string]interface{}{
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
	})
	defer postgres.FinishSpan(span)

	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"user_id", inv.UserID,
	)

	query := `
	INSERT INTO invoices (
		id, user_id, products, subtotal, gst, gst_amount, total_amount,
		invoice_number, created_at, updated_at
	) VALUES (
		:id, :user_id, :products, :subtotal, :gst, :gst_amount, :total_amount,
		:invoice_number, :created_at, :updated_at
	)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, inv); err != nil {
		postgres.SetSpanError(span, err)
		if postgres.IsUniqueViolation(err, invoiceNumberIndex) {
			return ierr.WithError(err).
				WithHint("An invoice with this number already exists").
				WithReportableDetails(map[string]any{
					"invoice_number": inv.InvoiceNumber,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrDatabase)
	}

	postgres.SetSpanSuccess(span)
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	span := postgres.StartRepositorySpan(ctx, "invoice", "get", map[string]interface{}{
		"invoice_id": id,
	})
	defer postgres.FinishSpan(span)

	if inv := r.GetCache(ctx, id); inv != nil {
		return inv, nil
	}

	var row invoiceRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, invoiceSelect+` WHERE i.id = $1`, id)
	if err != nil {
		postgres.SetSpanError(span, err)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Invoice %s was not found", id).
				WithReportableDetails(map[string]any{
					"invoice_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}

	inv := row.toDomain()
	r.SetCache(ctx, inv)

	postgres.SetSpanSuccess(span)
	return inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	span := postgres.StartRepositorySpan(ctx, "invoice", "list", map[string]interface{}{
		"user_id": filter.UserID,
	})
	defer postgres.FinishSpan(span)

	var rows []invoiceRow
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows,
		invoiceSelect+` WHERE i.user_id = $1 ORDER BY i.created_at DESC, i.id DESC LIMIT $2 OFFSET $3`,
		filter.UserID, filter.GetLimit(), filter.GetOffset(),
	)
	if err != nil {
		postgres.SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}

	invoices := make([]*invoice.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, row.toDomain())
	}

	postgres.SetSpanSuccess(span)
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	span := postgres.StartRepositorySpan(ctx, "invoice", "count", map[string]interface{}{
		"user_id": filter.UserID,
	})
	defer postgres.FinishSpan(span)

	var count int
	err := r.db.GetQuerier(ctx).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM invoices WHERE user_id = $1`, filter.UserID)
	if err != nil {
		postgres.SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}

	postgres.SetSpanSuccess(span)
	return count, nil
}

// Invoices never change after creation so a cached copy stays valid until it expires

func (r *invoiceRepository) SetCache(ctx context.Context, inv *invoice.Invoice) {
	span := cache.StartCacheSpan(ctx, "invoice", "set", map[string]interface{}{
		"invoice_id": inv.ID,
	})
	defer cache.FinishSpan(span)

	key := cache.GenerateKey(cache.PrefixInvoice, inv.ID)
	r.cache.Set(ctx, key, inv, time.Duration(0))
	r.logger.Debugw("cache set", "key", key)
}

func (r *invoiceRepository) GetCache(ctx context.Context, id string) *invoice.Invoice {
	span := cache.StartCacheSpan(ctx, "invoice", "get", map[string]interface{}{
		"invoice_id": id,
	})
	defer cache.FinishSpan(span)

	key := cache.GenerateKey(cache.PrefixInvoice, id)
	if value, found := r.cache.Get(ctx, key); found {
		if inv, ok := value.(*invoice.Invoice); ok {
			r.logger.Debugw("cache hit", "key", key)
			// hand out a copy so callers cannot mutate the cached value
			cp := *inv
			return &cp
		}
	}
	r.logger.Debugw("cache miss", "key", key)
	return nil
}
