package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/measurement"
)

// PubSubHandler handles Pub/Sub measurement batches for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	batchJob         *BatchJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	BatchJob         *BatchJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings. Map generation can take minutes, so
	// the extension window is generous.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		batchJob:         cfg.BatchJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
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

	logger.Debug().Msg("received pubsub message")

	records, err := DecodeBatch(msg.Data)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Ack() // Ack malformed messages to prevent redelivery
		return
	}

	outcome, err := h.batchJob.Process(ctx, records)
	if err != nil {
		logger.Error().Err(err).Msg("batch processing failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Int("measurements", outcome.Ingested).
		Int("failed_scopes", len(outcome.Maps.Failed())).
		Dur("duration", duration).
		Msg("batch completed")

	msg.Ack()
}

// DecodeBatch parses a measurement batch payload. The payload is a
// JSON array of measurement records.
func DecodeBatch(data []byte) ([]measurement.Record, error) {
	var records []measurement.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding measurement batch: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("decoding measurement batch: empty batch")
	}
	return records, nil
}
