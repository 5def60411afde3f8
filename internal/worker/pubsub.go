package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/weather"
)

// PubSubHandler consumes on-demand cache refresh requests.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	job              *PrefetchJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Job              *PrefetchJob
	Logger           zerolog.Logger
}

// RefreshMessage asks the worker to re-warm one city.
type RefreshMessage struct {
	City  string `json:"city"`
	Units string `json:"units,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		job:              cfg.Job,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing refresh requests.
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

// handleMessage warms the cache for the requested city. Malformed messages
// are acked and dropped; redelivering them can never succeed.
func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received refresh request")

	var refresh RefreshMessage
	if err := json.Unmarshal(msg.Data, &refresh); err != nil {
		logger.Warn().Err(err).Msg("dropping malformed refresh request")
		msg.Ack()
		return
	}

	city := strings.TrimSpace(refresh.City)
	if city == "" {
		logger.Warn().Msg("dropping refresh request without a city")
		msg.Ack()
		return
	}

	units, err := weather.ParseUnitSystem(refresh.Units)
	if err != nil {
		logger.Warn().
			Str("units", refresh.Units).
			Msg("dropping refresh request with unknown unit system")
		msg.Ack()
		return
	}

	if err := h.job.WarmCity(ctx, city, units); err != nil {
		logger.Error().
			Err(err).
			Str("city", city).
			Msg("refresh failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("city", city).
		Str("units", string(units)).
		Dur("duration", time.Since(startTime)).
		Msg("refresh completed")

	msg.Ack()
}
