package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go-workforce/internal/scheduler"
)

// RunScheduler drives the recurring jobs: monthly batch scoring, leaderboard
// refresh, partition provisioning, and log retention.
func RunScheduler() error {
	logger := zap.L().Named("app.scheduler")

	infra, err := ConnectInfra()
	if err != nil {
		return err
	}
	defer infra.Close()

	registry := BuildRegistry(infra)

	sched := scheduler.New(infra.Redis, logger)
	sched.Register(scheduler.MonthlyScoringJob(registry.Scoring))
	sched.Register(scheduler.LeaderboardRefreshJob(registry.Maintenance))
	sched.Register(scheduler.PartitionProvisionJob(registry.Maintenance))
	sched.Register(scheduler.LogRetentionJob(registry.Maintenance))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("scheduler shutting down")
		cancel()
	}()

	sched.Start(ctx)
	return nil
}
