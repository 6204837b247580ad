package scheduler

import (
	"context"
	"time"

	"go-workforce/internal/maintenance"
	"go-workforce/internal/scoring"
)

// MonthlyScoringJob recomputes the previous month's scores for all active
// users. It ticks several times on day one so a failed attempt gets retried,
// while the lock TTL keeps a successful run from repeating.
func MonthlyScoringJob(svc scoring.Service) Job {
	return Job{
		Name:      "monthly-scoring",
		Interval:  6 * time.Hour,
		ShouldRun: FirstOfMonth,
		LockTTL:   20 * time.Hour,
		Run: func(ctx context.Context) error {
			year, month := PreviousMonth(time.Now().UTC())
			_, err := svc.BatchCalculateMonthlyScores(ctx, year, month)
			return err
		},
	}
}

func LeaderboardRefreshJob(svc maintenance.Service) Job {
	return Job{
		Name:     "leaderboard-refresh",
		Interval: 30 * time.Minute,
		Run:      svc.RefreshLeaderboard,
	}
}

// PartitionProvisionJob keeps the next month's attendance partition ahead of
// the calendar. Creation is IF NOT EXISTS, so repeated runs are harmless.
func PartitionProvisionJob(svc maintenance.Service) Job {
	return Job{
		Name:     "partition-provision",
		Interval: 24 * time.Hour,
		ShouldRun: func(now time.Time) bool {
			return now.Weekday() == time.Monday
		},
		LockTTL: 36 * time.Hour,
		Run:     svc.ProvisionNextPartition,
	}
}

func LogRetentionJob(svc maintenance.Service) Job {
	return Job{
		Name:     "log-retention",
		Interval: 24 * time.Hour,
		ShouldRun: func(now time.Time) bool {
			return now.Weekday() == time.Sunday
		},
		LockTTL: 36 * time.Hour,
		Run:     svc.PurgeExpiredLogs,
	}
}
