package producer

import (
	"context"
	"time"

	"go-workforce/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 3 * time.Second
	drainBatchSize      = 50
)

// ProcessOutboxEvents polls the outbox table and relays due events to Kafka
// until ctx is cancelled. Delivery is at-least-once: an event is marked sent
// only after the broker accepts it, and a failed publish reschedules the row
// instead of dropping it.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if err := drainOutbox(ctx, repo, writer, log); err != nil {
				log.Error("outbox drain failed", zap.Error(err))
			}
		}
	}
}

func drainOutbox(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
) error {
	events, err := repo.ListPending(ctx, drainBatchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	var sent, failed int
	for _, event := range events {
		if ctx.Err() != nil {
			break
		}

		if err := publishEvent(ctx, writer, event); err != nil {
			failed++
			logger.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("request_id", event.RequestID),
				zap.String("event_type", event.EventType),
				zap.String("topic", event.Topic),
				zap.Error(err),
			)
			if markErr := repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				logger.Error("mark outbox failed",
					zap.String("outbox_id", event.ID),
					zap.Error(markErr),
				)
			}
			continue
		}

		// A MarkSent failure leaves the row pending; the next drain
		// republishes it, which at-least-once delivery tolerates.
		if err := repo.MarkSent(ctx, event.ID); err != nil {
			logger.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	logger.Info("outbox batch drained",
		zap.Int("picked", len(events)),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
	)
	return nil
}
