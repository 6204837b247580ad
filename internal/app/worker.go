package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"go-workforce/internal/messaging/kafka"
	"go-workforce/internal/messaging/kafka/producer"
	"go-workforce/internal/shared/connection"
)

// RunWorker drains the transactional outbox into kafka until interrupted.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	infra, err := ConnectInfra()
	if err != nil {
		return err
	}
	defer infra.Close()

	kafkaBroker, err := requireEnv("KAFKA_BROKER")
	if err != nil {
		return err
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(infra.SQLDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}
