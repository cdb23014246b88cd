package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/invoicegen/invoicegen/internal/api/v1"
	"github.com/invoicegen/invoicegen/internal/auth"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/rest/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Auth    *v1.AuthHandler
	Invoice *v1.InvoiceHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.RequestLogger(logger),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiGroup := router.Group("/api")

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/register", handlers.Auth.Register)
		authGroup.POST("/login", handlers.Auth.Login)
	}

	private := apiGroup.Group("/")
	private.Use(middleware.AuthenticateMiddleware(auth.NewProvider(cfg), logger))

	pdfLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)

	invoices := private.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:invoiceId", handlers.Invoice.GetInvoice)
		invoices.GET("/:invoiceId/pdf", pdfLimiter.Middleware(), handlers.Invoice.GetInvoicePDF)
	}

	return router
}
