package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-workforce/internal/events"
	"go-workforce/internal/messaging/kafka"
	scoringerrors "go-workforce/internal/scoring/errors"
	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/audit"
	"go-workforce/internal/shared/cache"
	"go-workforce/internal/shared/contextutil"
)

// Component weights in percent. The weighted terms are combined on integer
// hundredths (see weightedTotal), keeping values like 0.15*91.30 = 13.695 on
// the decimal grid instead of the float64 13.69499... that rounds the wrong
// way.
const (
	weightAttendancePct  = 50
	weightPunctualityPct = 35
	weightReliabilityPct = 15

	batchConcurrency   = 8
	defaultLeaderboard = 10
)

//go:generate mockgen -source=scoring_service.go -destination=mock/scoring_service_mock.go -package=mock
type Service interface {
	CalculateMonthlyScore(ctx context.Context, userID string, year int, month time.Month) (ScoreResponse, error)
	BatchCalculateMonthlyScores(ctx context.Context, year int, month time.Month) (BatchResult, error)
	GetCurrentMonthLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetMonthlyScores(ctx context.Context, year int, month time.Month) ([]ScoreResponse, error)
}

type service struct {
	repo   Repository
	cache  cache.Cache
	audit  audit.Logger
	outbox kafka.OutboxRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, c cache.Cache, auditor audit.Logger, logger ...*zap.Logger) Service {
	l := zap.L().Named("scoring.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &service{
		repo:   repo,
		cache:  c,
		audit:  auditor,
		logger: l,
		now:    time.Now,
	}
}

// NewServiceWithOutbox additionally publishes a completion event through the
// outbox after every batch run.
func NewServiceWithOutbox(repo Repository, c cache.Cache, auditor audit.Logger, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	svc := NewService(repo, c, auditor, logger...).(*service)
	svc.outbox = outbox
	return svc
}

func (s *service) CalculateMonthlyScore(ctx context.Context, userID string, year int, month time.Month) (ScoreResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return ScoreResponse{}, apperror.InvalidField("user_id")
	}
	if month < time.January || month > time.December || year < 2000 {
		return ScoreResponse{}, scoringerrors.ErrInvalidPeriod
	}

	from := firstOfMonth(year, month)
	if from.After(s.now()) {
		return ScoreResponse{}, scoringerrors.ErrFutureMonth
	}
	to := from.AddDate(0, 1, -1)

	started := s.now()
	stats, err := s.repo.MonthlyStats(ctx, userID, from, to)
	if err != nil {
		return ScoreResponse{}, err
	}
	s.audit.LogQueryPerformance(ctx, "scoring.monthly_stats", s.now().Sub(started))

	workingDays := CountWorkingDays(from, to)

	attendance := ratioScore(stats.PresentDays+stats.OnLeaveDays, workingDays)
	punctuality := ratioScore(stats.ClockedInDays-stats.LateDays, stats.ClockedInDays)
	reliability := ratioScore(workingDays-stats.UnplannedAbsences, workingDays)

	total := weightedTotal(attendance, punctuality, reliability)
	grade := GradeFor(total)

	score := &MonthlyScore{
		UserID:           userUUID,
		ScoreDate:        from,
		ScorePeriod:      PeriodMonthly,
		AttendanceScore:  attendance,
		PunctualityScore: punctuality,
		ReliabilityScore: reliability,
		TotalScore:       total,
		Grade:            grade,
	}
	if err := s.repo.Upsert(ctx, score); err != nil {
		s.logger.Error("score upsert failed", zap.String("user_id", userID), zap.Error(err))
		return ScoreResponse{}, err
	}

	s.invalidateScoreCaches(ctx, userID, year, month)

	return toScoreResponse(*score), nil
}

// BatchCalculateMonthlyScores fans the monthly calculation out over every
// active user. One user's failure is recorded, the rest keep going.
func (s *service) BatchCalculateMonthlyScores(ctx context.Context, year int, month time.Month) (BatchResult, error) {
	userIDs, err := s.repo.ListActiveUserIDs(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	var (
		mu        sync.Mutex
		processed int
		failures  []BatchError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			if _, err := s.CalculateMonthlyScore(gctx, userID, year, month); err != nil {
				s.logger.Warn("monthly score failed",
					zap.String("user_id", userID),
					zap.Int("year", year),
					zap.Int("month", int(month)),
					zap.Error(err))
				mu.Lock()
				failures = append(failures, BatchError{UserID: userID, Reason: err.Error()})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			processed++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].UserID < failures[j].UserID })

	result := BatchResult{
		Year:      year,
		Month:     int(month),
		Processed: processed,
		Failed:    len(failures),
		Errors:    failures,
	}

	s.audit.LogSystemMetric(ctx, "scoring.batch_processed", float64(processed),
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("failed", len(failures)))
	s.enqueueBatchEvent(ctx, result)

	if err := s.cache.Del(ctx, cache.LeaderboardKey(year, month)); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}

	s.logger.Info("monthly scoring batch finished",
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("processed", processed),
		zap.Int("failed", len(failures)))

	return result, nil
}

func (s *service) GetCurrentMonthLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboard
	}
	now := s.now()
	year, month := now.Year(), now.Month()

	key := fmt.Sprintf("%s:top:%d", cache.LeaderboardKey(year, month), limit)
	var entries []LeaderboardEntry
	err := s.cache.GetOrSet(ctx, key, cache.TTLShort, func(ctx context.Context) (any, error) {
		rows, err := s.repo.FindTopByMonth(ctx, year, month, limit)
		if err != nil {
			return nil, err
		}
		return RankScores(rows), nil
	}, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *service) GetMonthlyScores(ctx context.Context, year int, month time.Month) ([]ScoreResponse, error) {
	rows, err := s.repo.FindByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	out := make([]ScoreResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toScoreResponse(row))
	}
	return out, nil
}

func (s *service) invalidateScoreCaches(ctx context.Context, userID string, year int, month time.Month) {
	keys := []string{
		cache.UserScoreKey(userID, year, month),
		cache.LeaderboardKey(year, month),
	}
	for _, key := range keys {
		if err := s.cache.Del(ctx, key); err != nil {
			s.logger.Warn("score cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *service) enqueueBatchEvent(ctx context.Context, result BatchResult) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(events.ScoresCalculatedEvent{
		EventType:  "scores.calculated",
		Year:       result.Year,
		Month:      result.Month,
		Processed:  result.Processed,
		Failed:     result.Failed,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("marshal scores event", zap.Error(err))
		return
	}
	err = s.outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "monthly_score_batch",
		AggregateID:   fmt.Sprintf("%04d-%02d", result.Year, result.Month),
		EventType:     "scores.calculated",
		Topic:         events.ScoresCalculatedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
	if err != nil {
		s.logger.Error("enqueue scores event", zap.Error(err))
	}
}

// RankScores assigns dense ranks: equal totals share a rank and the next
// distinct total gets 1 + count(strictly greater). Input must be ordered by
// total score descending.
func RankScores(rows []MonthlyScore) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(rows))
	rank := 0
	prev := math.Inf(1)
	for i, row := range rows {
		if row.TotalScore < prev {
			rank = i + 1
			prev = row.TotalScore
		}
		entry := LeaderboardEntry{
			Rank:       rank,
			UserID:     row.UserID.String(),
			TotalScore: row.TotalScore,
			Grade:      row.Grade,
		}
		if row.User != nil {
			entry.UserName = row.User.FullName
		}
		entries = append(entries, entry)
	}
	return entries
}

// CountWorkingDays counts Mon-Fri dates in [from, to] inclusive.
func CountWorkingDays(from, to time.Time) int {
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

// GradeFor maps a total score to its letter grade.
func GradeFor(total float64) string {
	switch {
	case total >= 95:
		return "A+"
	case total >= 90:
		return "A"
	case total >= 85:
		return "B+"
	case total >= 80:
		return "B"
	case total >= 70:
		return "C"
	case total >= 60:
		return "D"
	default:
		return "F"
	}
}

// ratioScore returns numerator/denominator as a 0-100 percentage. An empty
// denominator counts as a perfect month rather than a division by zero.
func ratioScore(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 100
	}
	return round2(math.Min(100, float64(numerator)/float64(denominator)*100))
}

// weightedTotal combines the three component scores, each already rounded to
// 2 decimals, into the weighted total. Each term is computed in integer
// hundredths with half-up rounding so the result matches exact decimal
// arithmetic.
func weightedTotal(attendance, punctuality, reliability float64) float64 {
	total := weightedHundredths(attendance, weightAttendancePct) +
		weightedHundredths(punctuality, weightPunctualityPct) +
		weightedHundredths(reliability, weightReliabilityPct)
	return float64(total) / 100
}

func weightedHundredths(score float64, weightPct int64) int64 {
	hundredths := int64(math.Round(score * 100))
	return (hundredths*weightPct + 50) / 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toScoreResponse(row MonthlyScore) ScoreResponse {
	resp := ScoreResponse{
		UserID:           row.UserID.String(),
		ScoreDate:        row.ScoreDate.Format("2006-01-02"),
		ScorePeriod:      row.ScorePeriod,
		AttendanceScore:  row.AttendanceScore,
		PunctualityScore: row.PunctualityScore,
		ReliabilityScore: row.ReliabilityScore,
		TotalScore:       row.TotalScore,
		Grade:            row.Grade,
	}
	if row.User != nil {
		resp.UserName = row.User.FullName
	}
	return resp
}
