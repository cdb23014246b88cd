package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/invoicegen/invoicegen/internal/api/dto"
	v1 "github.com/invoicegen/invoicegen/internal/api/v1"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/service"
	"github.com/invoicegen/invoicegen/internal/testutil"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
	token  string
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.router = s.newRouter(s.GetConfig(), s.GetStores().InvoiceRepo)
	s.token = s.register("Asha Rao", "asha@example.com")
}

func (s *RouterSuite) newRouter(cfg *config.Configuration, invoices invoice.Repository) *gin.Engine {
	stores := s.GetStores()
	params := service.NewServiceParams(
		s.GetLogger(),
		cfg,
		s.GetDB(),
		s.GetPDFGenerator(),
		nil,
		s.GetCache(),
		s.GetSentry(),
		stores.AuthRepo,
		stores.UserRepo,
		invoices,
		s.GetPubSub(),
		nil,
	)

	handlers := Handlers{
		Health:  v1.NewHealthHandler(s.GetLogger()),
		Auth:    v1.NewAuthHandler(service.NewAuthService(params), s.GetLogger()),
		Invoice: v1.NewInvoiceHandler(service.NewInvoiceService(params), s.GetLogger()),
	}
	return NewRouter(handlers, cfg, s.GetLogger())
}

func (s *RouterSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(types.HeaderContentType, "application/json")
	if token != "" {
		req.Header.Set(types.HeaderAuthorization, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) register(name, email string) string {
	w := s.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "correct-horse",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotEmpty(resp.Token)
	return resp.Token
}

func (s *RouterSuite) createInvoice(token string) *dto.InvoiceResponse {
	w := s.do(http.MethodPost, "/api/invoices", token, dto.CreateInvoiceRequest{
		Products: []dto.ProductRequest{
			{Name: "Pen", Price: decimal.NewFromInt(10), Quantity: 2},
			{Name: "Book", Price: decimal.NewFromInt(100), Quantity: 1},
		},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp dto.CreateInvoiceResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().True(resp.Success)
	s.Require().NotNil(resp.Invoice)
	return resp.Invoice
}

func (s *RouterSuite) errorBody(w *httptest.ResponseRecorder) ierr.ErrorResponse {
	var resp ierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(types.HeaderRequestID, "req-from-client")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal("req-from-client", w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestCreateInvoice() {
	inv := s.createInvoice(s.token)

	s.Regexp(`^INV-\d+$`, inv.InvoiceNumber)
	s.True(decimal.NewFromInt(120).Equal(inv.Subtotal))
	s.True(decimal.NewFromInt(18).Equal(inv.GST))
	s.True(decimal.RequireFromString("21.6").Equal(inv.GSTAmount))
	s.True(decimal.RequireFromString("141.6").Equal(inv.TotalAmount))
	s.Len(inv.Products, 2)
}

func (s *RouterSuite) TestCreateInvoiceRequiresToken() {
	w := s.do(http.MethodPost, "/api/invoices", "", dto.CreateInvoiceRequest{})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Not authorized, no token", s.errorBody(w).Message)
}

func (s *RouterSuite) TestCreateInvoiceRejectsBadToken() {
	w := s.do(http.MethodPost, "/api/invoices", "not-a-jwt", dto.CreateInvoiceRequest{})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Not authorized, token failed", s.errorBody(w).Message)
}

func (s *RouterSuite) TestCreateInvoiceMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", bytes.NewBufferString(`{"products":`))
	req.Header.Set(types.HeaderAuthorization, "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	body := s.errorBody(w)
	s.False(body.Success)
	s.NotEmpty(body.Message)
}

func (s *RouterSuite) TestDownloadPDF() {
	inv := s.createInvoice(s.token)
	s.GetPDFGenerator().On("RenderInvoicePdf", mock.Anything, mock.Anything).Return(testutil.SamplePDF, nil)

	w := s.do(http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", s.token, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("application/pdf", w.Header().Get(types.HeaderContentType))
	s.Equal("attachment; filename=invoice-"+inv.InvoiceNumber+".pdf", w.Header().Get(types.HeaderDisposition))
	s.Equal(testutil.SamplePDF, w.Body.Bytes())
}

func (s *RouterSuite) TestDownloadPDFUnknownInvoice() {
	w := s.do(http.MethodGet, "/api/invoices/inv_01JUNKNOWN0000000000000000/pdf", s.token, nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Invoice not found", s.errorBody(w).Message)
	s.GetPDFGenerator().AssertNotCalled(s.T(), "RenderInvoicePdf", mock.Anything, mock.Anything)
}

func (s *RouterSuite) TestDownloadPDFOfAnotherUser() {
	inv := s.createInvoice(s.token)
	other := s.register("Ravi Iyer", "ravi@example.com")

	w := s.do(http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", other, nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Invoice not found", s.errorBody(w).Message)
}

func (s *RouterSuite) TestDownloadPDFRenderFailure() {
	inv := s.createInvoice(s.token)
	s.GetPDFGenerator().On("RenderInvoicePdf", mock.Anything, mock.Anything).Return(nil, ierr.NewError("chrome crashed").Mark(ierr.ErrRender))

	w := s.do(http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", s.token, nil)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("Error generating PDF", s.errorBody(w).Message)
}

// unreachableInvoiceRepo fails every lookup the way a dropped connection does
type unreachableInvoiceRepo struct {
	invoice.Repository
}

func (unreachableInvoiceRepo) Get(context.Context, string) (*invoice.Invoice, error) {
	return nil, ierr.NewError("connection reset by peer").
		WithHint("Failed to get invoice").
		Mark(ierr.ErrDatabase)
}

func (s *RouterSuite) TestDownloadPDFLookupFailure() {
	s.router = s.newRouter(s.GetConfig(), unreachableInvoiceRepo{})
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE)

	w := s.do(http.MethodGet, "/api/invoices/"+id+"/pdf", s.token, nil)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("Error generating PDF", s.errorBody(w).Message)
	s.GetPDFGenerator().AssertNotCalled(s.T(), "RenderInvoicePdf", mock.Anything, mock.Anything)
}

func (s *RouterSuite) TestDownloadPDFMalformedID() {
	for _, path := range []string{"/api/invoices/%00/pdf", "/api/invoices/inv_%FF/pdf", "/api/invoices/%00"} {
		w := s.do(http.MethodGet, path, s.token, nil)
		s.Equal(http.StatusNotFound, w.Code, path)
		s.Equal("Invoice not found", s.errorBody(w).Message, path)
	}
}

func (s *RouterSuite) TestDownloadURLWithoutArchive() {
	inv := s.createInvoice(s.token)

	w := s.do(http.MethodGet, "/api/invoices/"+inv.ID+"/pdf?url=true", s.token, nil)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestPDFRateLimit() {
	cfg := *s.GetConfig()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 1
	s.router = s.newRouter(&cfg, s.GetStores().InvoiceRepo)

	inv := s.createInvoice(s.token)
	s.GetPDFGenerator().On("RenderInvoicePdf", mock.Anything, mock.Anything).Return(testutil.SamplePDF, nil)

	first := s.do(http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", s.token, nil)
	s.Equal(http.StatusOK, first.Code)

	second := s.do(http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", s.token, nil)
	s.Equal(http.StatusTooManyRequests, second.Code)
}

func (s *RouterSuite) TestGetAndListInvoices() {
	first := s.createInvoice(s.token)
	s.createInvoice(s.token)

	w := s.do(http.MethodGet, "/api/invoices/"+first.ID, s.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var got dto.InvoiceResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal(first.InvoiceNumber, got.InvoiceNumber)

	w = s.do(http.MethodGet, "/api/invoices?limit=1", s.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.ListInvoicesResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Len(list.Items, 1)
	s.Equal(2, list.Pagination.Total)
	s.Equal(1, list.Pagination.Limit)
}

func (s *RouterSuite) TestLogin() {
	w := s.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "asha@example.com",
		Password: "correct-horse",
	})
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "asha@example.com",
		Password: "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid credentials", s.errorBody(w).Message)
}
