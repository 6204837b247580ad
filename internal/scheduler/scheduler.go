package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-workforce/internal/shared/cache"
)

// Job is a recurring unit of work. Run is invoked on every tick for which
// ShouldRun (when set) returns true and the distributed lock is acquired.
type Job struct {
	Name     string
	Interval time.Duration
	// ShouldRun gates a tick, e.g. "only on the first day of the month".
	// Nil means run on every tick.
	ShouldRun func(now time.Time) bool
	Run       func(ctx context.Context) error
	// LockTTL bounds how long one instance may hold the job. Defaults to
	// twice the interval, capped at an hour.
	LockTTL time.Duration
}

func (j Job) lockTTL() time.Duration {
	if j.LockTTL > 0 {
		return j.LockTTL
	}
	ttl := 2 * j.Interval
	if ttl > time.Hour {
		ttl = time.Hour
	}
	return ttl
}

// Scheduler runs registered jobs on their own tickers. A redis SetNX lock
// per job keeps multiple instances from running the same job concurrently;
// losing the race is a skip, not an error.
type Scheduler struct {
	rdb    *redis.Client
	logger *zap.Logger
	jobs   []Job
	now    func() time.Time
}

func New(rdb *redis.Client, logger ...*zap.Logger) *Scheduler {
	l := zap.L().Named("scheduler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Scheduler{
		rdb:    rdb,
		logger: l,
		now:    time.Now,
	}
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start blocks until ctx is cancelled and every job loop has drained.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLoop(ctx, job)
		}()
	}
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
	wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("job loop started",
		zap.String("job", job.Name),
		zap.Duration("interval", job.Interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("job loop stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job Job) {
	now := s.now()
	if job.ShouldRun != nil && !job.ShouldRun(now) {
		return
	}

	acquired, err := s.acquireLock(ctx, job)
	if err != nil {
		s.logger.Warn("job lock check failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Debug("job held elsewhere, skipping", zap.String("job", job.Name))
		return
	}

	started := s.now()
	if err := job.Run(ctx); err != nil {
		// one failed run never takes the loop down; the lock is freed so
		// the next tick retries instead of waiting out the TTL
		s.logger.Error("job run failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", s.now().Sub(started)),
			zap.Error(err))
		s.releaseLock(ctx, job)
		return
	}
	s.logger.Info("job run finished",
		zap.String("job", job.Name),
		zap.Duration("elapsed", s.now().Sub(started)))
}

func (s *Scheduler) acquireLock(ctx context.Context, job Job) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}
	return s.rdb.SetNX(ctx, cache.JobLockKey(job.Name), "locked", job.lockTTL()).Result()
}

func (s *Scheduler) releaseLock(ctx context.Context, job Job) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cache.JobLockKey(job.Name)).Err(); err != nil {
		s.logger.Warn("job lock release failed", zap.String("job", job.Name), zap.Error(err))
	}
}

// FirstOfMonth gates a daily job so it fires only on day one.
func FirstOfMonth(now time.Time) bool {
	return now.Day() == 1
}

// PreviousMonth resolves the (year, month) a first-of-month batch should
// cover: the month that just ended.
func PreviousMonth(now time.Time) (int, time.Month) {
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}
