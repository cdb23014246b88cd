package repository

import (
	"github.com/invoicegen/invoicegen/internal/cache"
	"github.com/invoicegen/invoicegen/internal/domain/auth"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	"github.com/invoicegen/invoicegen/internal/domain/user"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/postgres"
	postgresRepo "github.com/invoicegen/invoicegen/internal/repository/postgres"
)

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return postgresRepo.NewUserRepository(db, logger)
}

func NewAuthRepository(db *postgres.DB, logger *logger.Logger) auth.Repository {
	return postgresRepo.NewAuthRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger, cache)
}
