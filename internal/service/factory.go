package service

import (
	"github.com/invoicegen/invoicegen/internal/cache"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/domain/auth"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	"github.com/invoicegen/invoicegen/internal/domain/user"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/pdf"
	"github.com/invoicegen/invoicegen/internal/postgres"
	"github.com/invoicegen/invoicegen/internal/pubsub"
	"github.com/invoicegen/invoicegen/internal/s3"
	"github.com/invoicegen/invoicegen/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger       *logger.Logger
	Config       *config.Configuration
	DB           postgres.IClient
	PDFGenerator pdf.Generator
	// S3 is nil when archiving is disabled
	S3     s3.Service
	Cache  cache.Cache
	Sentry *sentry.Service

	// Repositories
	AuthRepo    auth.Repository
	UserRepo    user.Repository
	InvoiceRepo invoice.Repository

	// Publisher is optional; invoices are created without events when nil
	Publisher       pubsub.Publisher
	NumberGenerator *invoice.NumberGenerator
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	pdfGenerator pdf.Generator,
	s3Service s3.Service,
	cache cache.Cache,
	sentry *sentry.Service,
	authRepo auth.Repository,
	userRepo user.Repository,
	invoiceRepo invoice.Repository,
	publisher pubsub.Publisher,
	numberGenerator *invoice.NumberGenerator,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		DB:              db,
		PDFGenerator:    pdfGenerator,
		S3:              s3Service,
		Cache:           cache,
		Sentry:          sentry,
		AuthRepo:        authRepo,
		UserRepo:        userRepo,
		InvoiceRepo:     invoiceRepo,
		Publisher:       publisher,
		NumberGenerator: numberGenerator,
	}
}
