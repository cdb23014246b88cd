package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicegen/invoicegen/internal/api/dto"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/service"
	"github.com/invoicegen/invoicegen/internal/types"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// CreateInvoice godoc
// @Summary Create a new invoice
// @Description Create an invoice for the authenticated user. Totals and the invoice number are computed server side.
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoice body dto.CreateInvoiceRequest true "Invoice products"
// @Success 201 {object} dto.CreateInvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrValidation))
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to create invoice", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateInvoiceResponse{
		Success: true,
		Invoice: invoice,
	})
}

// ListInvoices godoc
// @Summary List invoices
// @Description List the authenticated user's invoices, newest first
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 1000)"
// @Param offset query int false "Offset"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetInvoice godoc
// @Summary Get an invoice by ID
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{invoiceId} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("invoiceId")

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// GetInvoicePDF godoc
// @Summary Download the PDF for an invoice
// @Description Renders the invoice as an A4 PDF and returns it as an attachment
// @Tags Invoices
// @Produce application/pdf
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Param url query bool false "Return a presigned download URL instead of the PDF"
// @Success 200 {file} application/pdf
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 429 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{invoiceId}/pdf [get]
func (h *InvoiceHandler) GetInvoicePDF(c *gin.Context) {
	id := c.Param("invoiceId")

	if c.Query("url") == "true" {
		url, err := h.invoiceService.GetInvoicePDFUrl(c.Request.Context(), id)
		if err != nil {
			h.logger.Errorw("failed to get invoice pdf url", "error", err, "invoice_id", id)
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, dto.InvoicePdfUrlResponse{URL: url})
		return
	}

	doc, err := h.invoiceService.GetInvoicePDF(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorw("failed to generate invoice pdf", "error", err, "invoice_id", id)
		c.Error(err)
		return
	}

	c.Header(types.HeaderDisposition, fmt.Sprintf("attachment; filename=%s", doc.FileName))
	c.Data(http.StatusOK, doc.ContentType(), doc.Data)
}
