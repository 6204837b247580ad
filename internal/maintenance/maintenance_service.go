package maintenance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-workforce/internal/shared/audit"
)

const (
	purgeBatchSize = 1000

	auditRetention  = 180 * 24 * time.Hour
	outboxRetention = 14 * 24 * time.Hour
)

type Service interface {
	// ProvisionNextPartition pre-creates the attendance partition for the
	// month after the current one.
	ProvisionNextPartition(ctx context.Context) error
	RefreshLeaderboard(ctx context.Context) error
	PurgeExpiredLogs(ctx context.Context) error
}

type service struct {
	repo   Repository
	audit  audit.Logger
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, auditor audit.Logger, logger ...*zap.Logger) Service {
	l := zap.L().Named("maintenance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &service{
		repo:   repo,
		audit:  auditor,
		logger: l,
		now:    time.Now,
	}
}

func (s *service) ProvisionNextPartition(ctx context.Context) error {
	// anchored to day 1: AddDate on a month-end date (Jan 31) would
	// normalize past the next month entirely
	now := s.now().UTC()
	nextMonth := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	name, err := s.repo.CreateAttendancePartition(ctx, nextMonth)
	if err != nil {
		return err
	}
	s.logger.Info("attendance partition ready", zap.String("partition", name))
	return nil
}

func (s *service) RefreshLeaderboard(ctx context.Context) error {
	started := s.now()
	if err := s.repo.RefreshLeaderboardView(ctx); err != nil {
		return err
	}
	s.audit.LogQueryPerformance(ctx, "maintenance.refresh_leaderboard", s.now().Sub(started))
	return nil
}

func (s *service) PurgeExpiredLogs(ctx context.Context) error {
	now := s.now().UTC()

	auditPurged, err := s.repo.PurgeAuditLogsBefore(ctx, now.Add(-auditRetention), purgeBatchSize)
	if err != nil {
		return err
	}
	outboxPurged, err := s.repo.PurgeOutboxSentBefore(ctx, now.Add(-outboxRetention), purgeBatchSize)
	if err != nil {
		return err
	}

	s.audit.LogSystemMetric(ctx, "maintenance.rows_purged", float64(auditPurged+outboxPurged),
		zap.Int64("audit_logs", auditPurged),
		zap.Int64("outbox_events", outboxPurged))
	s.logger.Info("log retention cleanup finished",
		zap.Int64("audit_logs", auditPurged),
		zap.Int64("outbox_events", outboxPurged))
	return nil
}
