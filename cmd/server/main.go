package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	_ "github.com/invoicegen/invoicegen/docs/swagger"
	"github.com/invoicegen/invoicegen/internal/api"
	v1 "github.com/invoicegen/invoicegen/internal/api/v1"
	"github.com/invoicegen/invoicegen/internal/cache"
	"github.com/invoicegen/invoicegen/internal/chrome"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/domain/invoice"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/pdf"
	"github.com/invoicegen/invoicegen/internal/postgres"
	"github.com/invoicegen/invoicegen/internal/pubsub"
	"github.com/invoicegen/invoicegen/internal/pubsub/kafka"
	"github.com/invoicegen/invoicegen/internal/pubsub/memory"
	pubsubRouter "github.com/invoicegen/invoicegen/internal/pubsub/router"
	"github.com/invoicegen/invoicegen/internal/repository"
	"github.com/invoicegen/invoicegen/internal/s3"
	"github.com/invoicegen/invoicegen/internal/sentry"
	"github.com/invoicegen/invoicegen/internal/service"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/invoicegen/invoicegen/internal/validator"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// @title Invoice Generator API
// @version 1.0
// @description Creates GST invoices and renders them to PDF
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the token in the format **Bearer &lt;token&gt;**

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC

	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Repositories
			repository.NewUserRepository,
			repository.NewAuthRepository,
			repository.NewInvoiceRepository,

			// Documents
			s3.NewService,

			// PDF rendering
			chrome.NewLauncher,
			chrome.NewExporter,
			pdf.NewRenderer,
			pdf.NewGenerator,

			provideNumberGenerator,

			// PubSub
			providePubSub,
			func(ps pubsub.PubSub) pubsub.Publisher { return ps },
			func(ps pubsub.PubSub) pubsub.Subscriber { return ps },
			pubsubRouter.NewRouter,
		),
		fx.Invoke(func() { validator.NewValidator() }),
		sentry.Module(),
		postgres.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewAuthService,
			service.NewInvoiceService,
			service.NewInvoiceEventHandler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideNumberGenerator(cfg *config.Configuration) *invoice.NumberGenerator {
	return invoice.NewNumberGenerator(cfg.Invoice.NumberPrefix)
}

func providePubSub(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	var (
		ps  pubsub.PubSub
		err error
	)

	switch cfg.PubSub.Type {
	case types.PubSubKafka:
		ps, err = kafka.NewPubSub(cfg, log)
		if err != nil {
			return nil, err
		}
	default:
		ps = memory.NewPubSub(log)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return ps.Close()
		},
	})
	return ps, nil
}

func provideHandlers(
	logger *logger.Logger,
	authService service.AuthService,
	invoiceService service.InvoiceService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(logger),
		Auth:    v1.NewAuthHandler(authService, logger),
		Invoice: v1.NewInvoiceHandler(invoiceService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	eventHandler service.InvoiceEventHandler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, cfg, router, eventHandler, log)
	case types.ModeAWSLambdaAPI:
		startMessageRouter(lc, cfg, router, eventHandler, log)
		startAWSLambdaAPI(lc, r)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return srv.Shutdown(ctx)
		},
	})
}

func startAWSLambdaAPI(lc fx.Lifecycle, r *gin.Engine) {
	ginLambda := ginadapter.New(r)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// lambda.Start blocks for the life of the function instance
			go lambda.Start(ginLambda.ProxyWithContext)
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *pubsubRouter.Router,
	eventHandler service.InvoiceEventHandler,
	logger *logger.Logger,
) {
	if !cfg.Invoice.PrerenderPDF {
		logger.Info("pdf prerendering disabled, message router not started")
		return
	}

	// Register handlers before starting the router
	eventHandler.RegisterHandler(router)

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(runCtx); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			cancel()
			return router.Close()
		},
	})
}
