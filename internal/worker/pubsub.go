package worker

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Dispatcher routes a message to the handler named by its job_type attribute.
type Dispatcher struct {
	actions     *ActionHandler
	maintenance *MaintenanceJob
	logger      zerolog.Logger
}

// NewDispatcher creates a dispatcher. A nil maintenance job acks maintenance requests.
func NewDispatcher(actions *ActionHandler, maintenance *MaintenanceJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{actions: actions, maintenance: maintenance, logger: logger}
}

// Dispatch processes one message and returns what to do with it.
func (d *Dispatcher) Dispatch(ctx context.Context, attributes map[string]string, data []byte) Disposition {
	jobType := attributes["job_type"]
	if jobType == "" {
		jobType = JobAction
	}

	switch jobType {
	case JobAction:
		disposition, err := d.actions.Handle(ctx, data)
		if err != nil {
			d.logger.Error().Err(err).Msg("action failed")
		}
		return disposition

	case JobMaintenance:
		if d.maintenance == nil {
			d.logger.Warn().Msg("maintenance requested but not configured")
			return Ack
		}
		result := d.maintenance.Run(ctx)
		if result.Failed > 0 {
			return Nack
		}
		return Ack

	default:
		d.logger.Warn().Str("job_type", jobType).Msg("unknown job type")
		return Ack
	}
}

// PubSubHandler receives messages from a Pub/Sub subscription.
//
// Up to MaxOutstandingMessages deliveries are handled at once and nothing
// orders them per user, so two actions for the same user can race in the
// engine's read-modify-write and one of the awards can be lost. Set
// MaxOutstandingMessages to 1 when that matters more than throughput.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger

	// MaxOutstandingMessages bounds concurrent deliveries. Default: 10
	MaxOutstandingMessages int
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	maxOutstanding := cfg.MaxOutstandingMessages
	if maxOutstanding <= 0 {
		maxOutstanding = 10
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = maxOutstanding
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks processing messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	disposition := h.dispatcher.Dispatch(logger.WithContext(ctx), msg.Attributes, msg.Data)

	logger.Debug().
		Str("disposition", disposition.String()).
		Dur("duration", time.Since(startTime)).
		Msg("message handled")

	if disposition == Nack {
		msg.Nack()
		return
	}
	msg.Ack()
}
