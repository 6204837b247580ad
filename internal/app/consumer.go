package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-workforce/internal/events"
	"go-workforce/internal/messaging/kafka/consumer"
)

// RunConsumer applies approved-leave events to the attendance calendar.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	infra, err := ConnectInfra()
	if err != nil {
		return err
	}
	defer infra.Close()

	kafkaBroker, err := requireEnv("KAFKA_BROKER")
	if err != nil {
		return err
	}

	registry := BuildRegistry(infra)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.LeaveApprovedTopic,
		GroupID:        "go-workforce-leave-attendance",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeLeaveLifecycle(ctx, reader, registry.Attendance, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
