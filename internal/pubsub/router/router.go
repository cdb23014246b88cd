package router

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/sentry"
)

const poisonTopic = "invoicegen_dlq"

// Router manages all message routing
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
}

func NewRouter(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service) (*Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger.GetWatermillLogger())
	if err != nil {
		return nil, err
	}

	poisonQueue, err := middleware.PoisonQueueWithFilter(newPoisonPublisher(logger), poisonTopic, func(err error) bool {
		return !shouldRetry(logger, err)
	})
	if err != nil {
		return nil, err
	}

	// the retry middleware runs inside the poison queue so exhausted messages end up there
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		poisonQueue,
		middleware.Retry{
			MaxRetries:          cfg.PubSub.MaxRetries,
			InitialInterval:     cfg.PubSub.InitialInterval,
			MaxInterval:         cfg.PubSub.MaxInterval,
			Multiplier:          2,
			RandomizationFactor: 0.5,
			Logger:              logger.GetWatermillLogger(),
			ShouldRetry: func(params middleware.RetryParams) bool {
				return shouldRetry(logger, params.Err)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
	}, nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err != nil {
				r.sentry.CaptureException(msg.Context(), err)
				r.logger.Errorw("handler failed",
					"handler", handlerName,
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
			}
			return err
		},
	)
	handler.AddMiddleware(middlewares...)
}

// Run blocks until ctx is cancelled or the router is closed
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting message router")
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

func (r *Router) Close() error {
	r.logger.Info("closing message router")
	return r.router.Close()
}

// newPoisonPublisher keeps poisoned messages in process; they are logged by the handler wrapper
func newPoisonPublisher(logger *logger.Logger) message.Publisher {
	return gochannel.NewGoChannel(gochannel.Config{Persistent: false}, logger.GetWatermillLogger())
}
