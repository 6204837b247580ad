package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"go-workforce/internal/shared/audit"
)

type fakeMaintenanceRepo struct {
	createPartitionFn func(ctx context.Context, monthStart time.Time) (string, error)
	refreshViewFn     func(ctx context.Context) error
	purgeAuditFn      func(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
	purgeOutboxFn     func(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

func (f *fakeMaintenanceRepo) CreateAttendancePartition(ctx context.Context, monthStart time.Time) (string, error) {
	return f.createPartitionFn(ctx, monthStart)
}

func (f *fakeMaintenanceRepo) RefreshLeaderboardView(ctx context.Context) error {
	return f.refreshViewFn(ctx)
}

func (f *fakeMaintenanceRepo) PurgeAuditLogsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	return f.purgeAuditFn(ctx, cutoff, batchSize)
}

func (f *fakeMaintenanceRepo) PurgeOutboxSentBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	return f.purgeOutboxFn(ctx, cutoff, batchSize)
}

func newMaintenanceService(repo Repository, at time.Time) *service {
	svc := NewService(repo, audit.NewZapLogger(zap.NewNop()), zap.NewNop()).(*service)
	svc.now = func() time.Time { return at }
	return svc
}

func TestProvisionNextPartitionTargetsFollowingMonth(t *testing.T) {
	var target time.Time
	repo := &fakeMaintenanceRepo{
		createPartitionFn: func(ctx context.Context, monthStart time.Time) (string, error) {
			target = monthStart
			return "attendance_records_y2026m02", nil
		},
	}

	// Jan 31 must still land in February, not skip to March
	svc := newMaintenanceService(repo, time.Date(2026, time.January, 31, 6, 0, 0, 0, time.UTC))
	assert.NoError(t, svc.ProvisionNextPartition(context.Background()))
	assert.Equal(t, "2026-02-01", target.Format("2006-01-02"))
}

func TestProvisionNextPartitionCrossesYearEnd(t *testing.T) {
	var target time.Time
	repo := &fakeMaintenanceRepo{
		createPartitionFn: func(ctx context.Context, monthStart time.Time) (string, error) {
			target = monthStart
			return "attendance_records_y2027m01", nil
		},
	}

	svc := newMaintenanceService(repo, time.Date(2026, time.December, 15, 6, 0, 0, 0, time.UTC))
	assert.NoError(t, svc.ProvisionNextPartition(context.Background()))
	assert.Equal(t, "2027-01-01", target.Format("2006-01-02"))
}

func TestPurgeExpiredLogsAppliesRetentionCutoffs(t *testing.T) {
	at := time.Date(2026, time.March, 1, 4, 0, 0, 0, time.UTC)
	var auditCutoff, outboxCutoff time.Time
	repo := &fakeMaintenanceRepo{
		purgeAuditFn: func(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
			auditCutoff = cutoff
			assert.Equal(t, purgeBatchSize, batchSize)
			return 120, nil
		},
		purgeOutboxFn: func(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
			outboxCutoff = cutoff
			return 35, nil
		},
	}

	svc := newMaintenanceService(repo, at)
	assert.NoError(t, svc.PurgeExpiredLogs(context.Background()))
	assert.Equal(t, at.Add(-auditRetention), auditCutoff)
	assert.Equal(t, at.Add(-outboxRetention), outboxCutoff)
}
