package testutil

import (
	"context"
	"time"

	"github.com/invoicegen/invoicegen/internal/cache"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/sentry"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/invoicegen/invoicegen/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories used by service tests
type Stores struct {
	UserRepo    *InMemoryUserStore
	AuthRepo    *InMemoryAuthStore
	InvoiceRepo *InMemoryInvoiceStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx          context.Context
	stores       Stores
	db           *MockPostgresClient
	logger       *logger.Logger
	config       *config.Configuration
	cache        cache.Cache
	sentry       *sentry.Service
	pubSub       *InMemoryPubSub
	pdfGenerator *MockPDFGenerator
	now          time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelError
	cfg.Sentry.Enabled = false
	s.config = cfg
	s.logger = logger.NewNoopLogger()
	s.sentry = sentry.NewSentryService(cfg, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext(DefaultTestUserID)
	s.setupStores()
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) setupStores() {
	users := NewInMemoryUserStore()
	s.stores = Stores{
		UserRepo:    users,
		AuthRepo:    NewInMemoryAuthStore(),
		InvoiceRepo: NewInMemoryInvoiceStore(users),
	}
	s.db = NewMockPostgresClient()
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.pubSub = NewInMemoryPubSub()
	s.pdfGenerator = NewMockPDFGenerator()
}

// GetContext returns the test context, authenticated as DefaultTestUserID
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetContextAs returns a test context authenticated as userID
func (s *BaseServiceTestSuite) GetContextAs(userID string) context.Context {
	return SetupContext(userID)
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubSub
}

func (s *BaseServiceTestSuite) GetPDFGenerator() *MockPDFGenerator {
	return s.pdfGenerator
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
