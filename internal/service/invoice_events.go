package service

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/pubsub"
	pubsubRouter "github.com/invoicegen/invoicegen/internal/pubsub/router"
	"github.com/invoicegen/invoicegen/internal/types"
)

// prerendering launches a browser per message, keep it slow
const prerenderPerSecond = 2

// InvoiceEventHandler renders PDFs ahead of the first download
type InvoiceEventHandler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type invoiceEventHandler struct {
	invoiceService InvoiceService
	subscriber     pubsub.Subscriber
	topic          string
	logger         *logger.Logger
}

func NewInvoiceEventHandler(params ServiceParams, invoiceService InvoiceService, subscriber pubsub.Subscriber) InvoiceEventHandler {
	return &invoiceEventHandler{
		invoiceService: invoiceService,
		subscriber:     subscriber,
		topic:          params.Config.PubSub.Topic,
		logger:         params.Logger,
	}
}

func (h *invoiceEventHandler) RegisterHandler(router *pubsubRouter.Router) {
	throttle := middleware.NewThrottle(prerenderPerSecond, time.Second)

	router.AddNoPublishHandler(
		"invoice_pdf_prerender_handler",
		h.topic,
		h.subscriber,
		h.processMessage,
		throttle.Middleware,
	)

	h.logger.Infow("registered invoice pdf prerender handler", "topic", h.topic)
}

func (h *invoiceEventHandler) processMessage(msg *message.Message) error {
	event, err := invoice.ParseCreatedEvent(msg.Payload)
	if err != nil {
		h.logger.Errorw("dropping malformed invoice event",
			"message_uuid", msg.UUID,
			"error", err,
		)
		return nil
	}

	ctx := context.Background()
	if event.UserID != "" {
		ctx = types.SetUserID(ctx, event.UserID)
	}
	if requestID := msg.Metadata.Get("request_id"); requestID != "" {
		ctx = types.SetRequestID(ctx, requestID)
	}

	if err := h.invoiceService.PrerenderInvoicePDF(ctx, event.InvoiceID); err != nil {
		return err
	}

	h.logger.Debugw("prerendered invoice pdf",
		"invoice_id", event.InvoiceID,
		"invoice_number", event.InvoiceNumber,
	)
	return nil
}
