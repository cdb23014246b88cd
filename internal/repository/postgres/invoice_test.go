package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/invoicegen/invoicegen/internal/cache"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/postgres"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var invoiceColumns = []string{
	"id", "user_id", "products", "subtotal", "gst", "gst_amount", "total_amount",
	"invoice_number", "created_at", "updated_at",
	"user_name", "user_email", "user_created_at", "user_updated_at",
}

type InvoiceRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	mock sqlmock.Sqlmock
	repo invoice.Repository
}

func TestInvoiceRepository(t *testing.T) {
	suite.Run(t, new(InvoiceRepositorySuite))
}

func (s *InvoiceRepositorySuite) SetupTest() {
	s.ctx = context.Background()

	conn, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.mock = mock

	log := logger.NewNoopLogger()
	cfg := config.GetDefaultConfig()
	db := postgres.NewFromSqlx(sqlx.NewDb(conn, "postgres"), log)
	s.repo = NewInvoiceRepository(db, log, cache.NewInMemoryCache(cfg, log))

	s.T().Cleanup(func() { conn.Close() })
}

func (s *InvoiceRepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *InvoiceRepositorySuite) sampleInvoice() *invoice.Invoice {
	inv := invoice.New("user_1", []invoice.LineItemInput{
		{Name: "Pen", Price: decimal.NewFromInt(10), Quantity: 2},
		{Name: "Book", Price: decimal.NewFromInt(100), Quantity: 1},
	}, decimal.NewFromInt(18))
	inv.InvoiceNumber = "INV-1700000000000"
	return inv
}

func (s *InvoiceRepositorySuite) rowFor(inv *invoice.Invoice, userName, userEmail any) []driver.Value {
	products, err := inv.Products.Value()
	s.Require().NoError(err)

	var userTime any
	if userName != nil {
		userTime = inv.CreatedAt
	}
	return []driver.Value{
		inv.ID, inv.UserID, products,
		inv.Subtotal.String(), inv.GST.String(), inv.GSTAmount.String(), inv.TotalAmount.String(),
		inv.InvoiceNumber, inv.CreatedAt, inv.UpdatedAt,
		userName, userEmail, userTime, userTime,
	}
}

func (s *InvoiceRepositorySuite) TestCreate() {
	inv := s.sampleInvoice()
	s.mock.ExpectExec(`INSERT INTO invoices`).WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Create(s.ctx, inv))
}

func (s *InvoiceRepositorySuite) TestCreateNumberClashIsAlreadyExists() {
	inv := s.sampleInvoice()
	s.mock.ExpectExec(`INSERT INTO invoices`).
		WillReturnError(&pq.Error{Code: postgres.UniqueViolation, Constraint: invoiceNumberIndex})

	err := s.repo.Create(s.ctx, inv)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *InvoiceRepositorySuite) TestCreateOtherFailureIsDatabase() {
	inv := s.sampleInvoice()
	s.mock.ExpectExec(`INSERT INTO invoices`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "invoices_user_id_fkey"})

	err := s.repo.Create(s.ctx, inv)
	s.True(ierr.IsDatabase(err))
	s.False(ierr.IsAlreadyExists(err))
}

func (s *InvoiceRepositorySuite) TestGetWithUser() {
	inv := s.sampleInvoice()
	s.mock.ExpectQuery(`FROM invoices i`).
		WithArgs(inv.ID).
		WillReturnRows(sqlmock.NewRows(invoiceColumns).AddRow(s.rowFor(inv, "Asha Rao", "asha@example.com")...))

	got, err := s.repo.Get(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(inv.ID, got.ID)
	s.Equal(inv.InvoiceNumber, got.InvoiceNumber)
	s.True(inv.Subtotal.Equal(got.Subtotal))
	s.True(inv.TotalAmount.Equal(got.TotalAmount))
	s.Len(got.Products, 2)
	s.Require().NotNil(got.User)
	s.Equal("Asha Rao", got.User.Name)
	s.Equal(inv.UserID, got.User.ID)
}

func (s *InvoiceRepositorySuite) TestGetWithDeletedUser() {
	inv := s.sampleInvoice()
	s.mock.ExpectQuery(`FROM invoices i`).
		WithArgs(inv.ID).
		WillReturnRows(sqlmock.NewRows(invoiceColumns).AddRow(s.rowFor(inv, nil, nil)...))

	got, err := s.repo.Get(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.Nil(got.User)
	s.Equal(inv.UserID, got.UserID)
}

func (s *InvoiceRepositorySuite) TestGetServedFromCache() {
	inv := s.sampleInvoice()
	s.mock.ExpectQuery(`FROM invoices i`).
		WithArgs(inv.ID).
		WillReturnRows(sqlmock.NewRows(invoiceColumns).AddRow(s.rowFor(inv, "Asha Rao", "asha@example.com")...))

	first, err := s.repo.Get(s.ctx, inv.ID)
	s.Require().NoError(err)

	second, err := s.repo.Get(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(first.InvoiceNumber, second.InvoiceNumber)
	s.NotSame(first, second)
}

func (s *InvoiceRepositorySuite) TestGetMissingIsNotFound() {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE)
	s.mock.ExpectQuery(`FROM invoices i`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(invoiceColumns))

	_, err := s.repo.Get(s.ctx, id)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceRepositorySuite) TestGetQueryFailureIsDatabase() {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE)
	s.mock.ExpectQuery(`FROM invoices i`).
		WithArgs(id).
		WillReturnError(sql.ErrConnDone)

	_, err := s.repo.Get(s.ctx, id)
	s.True(ierr.IsDatabase(err))
	s.False(ierr.IsNotFound(err))
}

func (s *InvoiceRepositorySuite) TestListAndCount() {
	older := s.sampleInvoice()
	newer := s.sampleInvoice()
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)

	filter := types.NewInvoiceFilter("user_1")
	filter.Limit = 10

	s.mock.ExpectQuery(`FROM invoices i`).
		WithArgs("user_1", 10, 0).
		WillReturnRows(sqlmock.NewRows(invoiceColumns).
			AddRow(s.rowFor(newer, "Asha Rao", "asha@example.com")...).
			AddRow(s.rowFor(older, nil, nil)...))
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices`).
		WithArgs("user_1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	got, err := s.repo.List(s.ctx, filter)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.NotNil(got[0].User)
	s.Nil(got[1].User)

	count, err := s.repo.Count(s.ctx, filter)
	s.Require().NoError(err)
	s.Equal(2, count)
}
