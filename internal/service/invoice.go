package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/invoicegen/invoicegen/internal/api/dto"
	"github.com/invoicegen/invoicegen/internal/cache"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/s3"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	// attempts to store an invoice when its number clashes with an existing one
	invoiceNumberAttempts = 3

	hintInvoiceNotFound = "Invoice not found"
	hintPdfFailed       = "Error generating PDF"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)

	// GetInvoicePDF returns the rendered PDF of an invoice owned by the caller
	GetInvoicePDF(ctx context.Context, id string) (*s3.Document, error)

	// GetInvoicePDFUrl archives the PDF when needed and returns a presigned download link
	GetInvoicePDFUrl(ctx context.Context, id string) (string, error)

	// PrerenderInvoicePDF warms the PDF cache and archive for a freshly created invoice
	PrerenderInvoicePDF(ctx context.Context, id string) error
}

type invoiceService struct {
	ServiceParams
	taxRate decimal.Decimal
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	if params.NumberGenerator == nil {
		params.NumberGenerator = invoice.NewNumberGenerator(params.Config.Invoice.NumberPrefix)
	}
	return &invoiceService{
		ServiceParams: params,
		taxRate:       decimal.NewFromFloat(params.Config.Invoice.TaxRatePercent),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return nil, ierr.NewError("user id missing from context").
			WithHint("Not authorized").
			Mark(ierr.ErrUnauthorized)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv := invoice.New(userID, req.ToLineItems(), s.taxRate)

	if err := s.storeWithUniqueNumber(ctx, inv); err != nil {
		return nil, err
	}

	if u, err := s.UserRepo.GetByID(ctx, userID); err == nil {
		inv.User = u
	} else {
		s.Logger.Warnw("failed to resolve invoice owner", "user_id", userID, "error", err)
	}

	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"user_id", userID,
		"total_amount", inv.TotalAmount.String(),
	)

	s.publishCreated(ctx, inv)

	return dto.NewInvoiceResponse(inv), nil
}

// storeWithUniqueNumber assigns an invoice number and persists the invoice,
// drawing a new number when another process already used it
func (s *invoiceService) storeWithUniqueNumber(ctx context.Context, inv *invoice.Invoice) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 50 * time.Millisecond

	attempt := 0
	operation := func() error {
		attempt++
		inv.InvoiceNumber = s.NumberGenerator.Next()

		err := s.InvoiceRepo.Create(ctx, inv)
		if err == nil {
			return nil
		}
		if ierr.IsAlreadyExists(err) {
			s.Logger.Warnw("invoice number clash, retrying",
				"invoice_number", inv.InvoiceNumber,
				"attempt", attempt,
			)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, invoiceNumberAttempts-1), ctx)
	err := backoff.Retry(operation, policy)
	if err != nil && ierr.IsAlreadyExists(err) {
		return ierr.NewErrorf("no unique invoice number after %d attempts: %v", attempt, err).
			WithHint("Failed to create invoice").
			WithReportableDetails(map[string]any{"attempts": attempt}).
			Mark(ierr.ErrDatabase)
	}
	return err
}

// publishCreated is best effort; the invoice is already stored
func (s *invoiceService) publishCreated(ctx context.Context, inv *invoice.Invoice) {
	if s.Publisher == nil {
		return
	}

	payload, err := json.Marshal(invoice.NewCreatedEvent(inv))
	if err != nil {
		s.Logger.Errorw("failed to marshal invoice event", "invoice_id", inv.ID, "error", err)
		return
	}

	msg := message.NewMessage(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT), payload)
	msg.Metadata.Set("invoice_id", inv.ID)
	msg.Metadata.Set("user_id", inv.UserID)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}

	// detached so a finished request does not cancel the publish
	if err := s.Publisher.Publish(context.WithoutCancel(ctx), s.Config.PubSub.Topic, msg); err != nil {
		s.Logger.Errorw("failed to publish invoice event",
			"invoice_id", inv.ID,
			"topic", s.Config.PubSub.Topic,
			"error", err,
		)
		s.Sentry.CaptureException(ctx, err)
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.getOwnedInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter("")
	}
	// callers only ever see their own invoices
	filter.UserID = types.GetUserID(ctx)
	if filter.UserID == "" {
		return nil, ierr.NewError("user id missing from context").
			WithHint("Not authorized").
			Mark(ierr.ErrUnauthorized)
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv)
	})

	response := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

// getOwnedInvoice treats an invoice of another user exactly like a missing one
func (s *invoiceService) getOwnedInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	userID := types.GetUserID(ctx)

	if !types.IsUUIDWithPrefix(id, types.UUID_PREFIX_INVOICE) {
		return nil, ierr.NewError("malformed invoice id").
			WithHint(hintInvoiceNotFound).
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHint(hintInvoiceNotFound).
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	if !inv.BelongsTo(userID) {
		return nil, ierr.NewError("invoice belongs to another user").
			WithHint(hintInvoiceNotFound).
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return inv, nil
}

// getPdfInvoice reports every lookup failure except NotFound as a PDF failure
func (s *invoiceService) getPdfInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.getOwnedInvoice(ctx, id)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, ierr.WithError(err).
			WithHint(hintPdfFailed).
			Error()
	}
	return inv, err
}

func (s *invoiceService) GetInvoicePDF(ctx context.Context, id string) (*s3.Document, error) {
	inv, err := s.getPdfInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.loadPDF(ctx, inv)
	if err != nil {
		return nil, err
	}
	return s3.NewInvoicePdf(inv.ID, inv.InvoiceNumber, data), nil
}

func (s *invoiceService) GetInvoicePDFUrl(ctx context.Context, id string) (string, error) {
	if s.S3 == nil {
		return "", ierr.NewError("pdf archive is disabled").
			WithHint("PDF download links are not available").
			Mark(ierr.ErrInvalidOperation)
	}

	inv, err := s.getPdfInvoice(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.archivePDF(ctx, inv); err != nil {
		return "", err
	}

	return s.S3.GetPresignedUrl(ctx, inv.ID, s3.InvoiceFileName(inv.InvoiceNumber))
}

func (s *invoiceService) PrerenderInvoicePDF(ctx context.Context, id string) error {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if s.S3 != nil {
		return s.archivePDF(ctx, inv)
	}

	_, err = s.loadPDF(ctx, inv)
	return err
}

// archivePDF uploads the invoice PDF unless the archive already holds it
func (s *invoiceService) archivePDF(ctx context.Context, inv *invoice.Invoice) error {
	exists, err := s.S3.Exists(ctx, inv.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	data, err := s.loadPDF(ctx, inv)
	if err != nil {
		return err
	}
	return s.S3.UploadDocument(ctx, s3.NewInvoicePdf(inv.ID, inv.InvoiceNumber, data))
}

// loadPDF serves the PDF from the cache, then the archive, and renders it only when both miss.
// Invoices are immutable so a PDF never goes stale.
func (s *invoiceService) loadPDF(ctx context.Context, inv *invoice.Invoice) ([]byte, error) {
	key := cache.GenerateKey(cache.PrefixInvoicePDF, inv.ID)
	if cached, found := s.Cache.Get(ctx, key); found {
		if data, ok := cached.([]byte); ok {
			return data, nil
		}
	}

	if s.S3 != nil {
		if data, err := s.fetchArchived(ctx, inv.ID); err != nil {
			s.Logger.Warnw("failed to read archived pdf, rendering instead", "invoice_id", inv.ID, "error", err)
		} else if data != nil {
			s.Cache.Set(ctx, key, data, 0)
			return data, nil
		}
	}

	data, err := s.renderPDF(ctx, inv)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, data, 0)
	return data, nil
}

func (s *invoiceService) fetchArchived(ctx context.Context, id string) ([]byte, error) {
	exists, err := s.S3.Exists(ctx, id)
	if err != nil || !exists {
		return nil, err
	}
	return s.S3.GetDocument(ctx, id)
}

func (s *invoiceService) renderPDF(ctx context.Context, inv *invoice.Invoice) ([]byte, error) {
	span, ctx := s.Sentry.StartRenderSpan(ctx, inv.ID)
	if span != nil {
		defer span.Finish()
	}

	start := time.Now()
	data, err := s.PDFGenerator.RenderInvoicePdf(ctx, inv)
	if err != nil {
		s.Logger.Errorw("failed to render invoice pdf",
			"invoice_id", inv.ID,
			"invoice_number", inv.InvoiceNumber,
			"error", err,
		)
		s.Sentry.CaptureException(ctx, err)
		return nil, ierr.WithError(err).
			WithHint(hintPdfFailed).
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrRender)
	}

	s.Logger.Infow("rendered invoice pdf",
		"invoice_id", inv.ID,
		"size", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}
