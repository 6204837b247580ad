package reporting

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-workforce/internal/attendance"
	"go-workforce/internal/scoring"
	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/cache"
)

// AttendanceReader is the slice of the attendance contract the dashboard
// composes.
type AttendanceReader interface {
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (attendance.AttendanceResponse, error)
}

//go:generate mockgen -source=reporting_service.go -destination=mock/reporting_service_mock.go -package=mock
type Service interface {
	StoreAttendanceReport(ctx context.Context, storeID string, year int, month time.Month) (StoreAttendanceReport, error)
	StoreLeaveReport(ctx context.Context, storeID string, year int, month time.Month) (StoreLeaveReport, error)
	StorePerformanceReport(ctx context.Context, storeID string, year int, month time.Month) (StorePerformanceReport, error)
	UserDashboard(ctx context.Context, userID string) (UserDashboard, error)
}

type service struct {
	repo       Repository
	attendance AttendanceReader
	cache      cache.Cache
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(repo Repository, att AttendanceReader, c cache.Cache, logger ...*zap.Logger) Service {
	l := zap.L().Named("reporting.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &service{
		repo:       repo,
		attendance: att,
		cache:      c,
		logger:     l,
		now:        time.Now,
	}
}

func (s *service) StoreAttendanceReport(ctx context.Context, storeID string, year int, month time.Month) (StoreAttendanceReport, error) {
	var report StoreAttendanceReport
	key := cache.StoreReportKey("attendance", storeID, year, month)
	err := s.cache.GetOrSet(ctx, key, cache.TTLMedium, func(ctx context.Context) (any, error) {
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, -1)
		workingDays := scoring.CountWorkingDays(from, to)

		rows, err := s.repo.AttendanceByStore(ctx, storeID, from, to)
		if err != nil {
			return nil, err
		}

		users := make([]UserAttendanceSummary, 0, len(rows))
		for _, row := range rows {
			users = append(users, UserAttendanceSummary{
				UserID:          row.UserID,
				UserName:        row.UserName,
				PresentDays:     row.PresentDays,
				AbsentDays:      row.AbsentDays,
				HalfDays:        row.HalfDays,
				LeaveDays:       row.LeaveDays,
				RemoteDays:      row.RemoteDays,
				LateDays:        row.LateDays,
				AttendanceRate:  attendanceRate(row.PresentDays, row.LeaveDays, workingDays),
				PunctualityRate: punctualityRate(row.PresentDays, row.LateDays),
			})
		}
		return StoreAttendanceReport{
			StoreID:          storeID,
			Year:             year,
			Month:            int(month),
			TotalWorkingDays: workingDays,
			Users:            users,
		}, nil
	}, &report)
	return report, err
}

func (s *service) StoreLeaveReport(ctx context.Context, storeID string, year int, month time.Month) (StoreLeaveReport, error) {
	var report StoreLeaveReport
	key := cache.StoreReportKey("leave", storeID, year, month)
	err := s.cache.GetOrSet(ctx, key, cache.TTLMedium, func(ctx context.Context) (any, error) {
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, -1)

		rows, err := s.repo.LeaveByStore(ctx, storeID, from, to)
		if err != nil {
			return nil, err
		}

		byStatus := map[string]int{}
		byTypeIndex := map[string]int{}
		byType := []LeaveTypeBreakdown{}
		for _, row := range rows {
			byStatus[row.Status] += row.Requests

			idx, ok := byTypeIndex[row.LeaveTypeName]
			if !ok {
				idx = len(byType)
				byTypeIndex[row.LeaveTypeName] = idx
				byType = append(byType, LeaveTypeBreakdown{LeaveTypeName: row.LeaveTypeName})
			}
			byType[idx].TotalRequests += row.Requests
			if row.Status == "APPROVED" {
				byType[idx].ApprovedRequests += row.Requests
				byType[idx].ApprovedDays += row.TotalDays
			}
		}
		return StoreLeaveReport{
			StoreID:        storeID,
			Year:           year,
			Month:          int(month),
			CountsByStatus: byStatus,
			ByType:         byType,
		}, nil
	}, &report)
	return report, err
}

func (s *service) StorePerformanceReport(ctx context.Context, storeID string, year int, month time.Month) (StorePerformanceReport, error) {
	var report StorePerformanceReport
	key := cache.StoreReportKey("performance", storeID, year, month)
	err := s.cache.GetOrSet(ctx, key, cache.TTLMedium, func(ctx context.Context) (any, error) {
		scoreDate := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		rows, err := s.repo.ScoresByStore(ctx, storeID, scoreDate)
		if err != nil {
			return nil, err
		}
		return StorePerformanceReport{
			StoreID: storeID,
			Year:    year,
			Month:   int(month),
			Users:   rankPerformance(rows),
		}, nil
	}, &report)
	return report, err
}

// UserDashboard composes today's attendance, the month's present-day count,
// the current score with rank, and the pending-leave count. The four reads
// are independent and issued concurrently.
func (s *service) UserDashboard(ctx context.Context, userID string) (UserDashboard, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	dashboard := UserDashboard{
		UserID: userID,
		Date:   today.Format("2006-01-02"),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := s.attendance.GetByUserAndDate(gctx, userID, today)
		if err != nil {
			if apperror.IsCode(err, apperror.CodeNotFound) {
				return nil
			}
			return err
		}
		dashboard.TodayAttendance = &resp
		return nil
	})

	g.Go(func() error {
		count, err := s.repo.PresentDayCount(gctx, userID, monthStart, monthEnd)
		if err != nil {
			return err
		}
		dashboard.MonthPresentDays = count
		return nil
	})

	g.Go(func() error {
		row, rank, err := s.repo.UserScoreWithRank(gctx, userID, monthStart)
		if err != nil {
			return err
		}
		if row != nil {
			dashboard.CurrentScore = &DashboardScore{
				TotalScore: row.TotalScore,
				Grade:      row.Grade,
				Rank:       rank,
			}
		}
		return nil
	})

	g.Go(func() error {
		count, err := s.repo.PendingLeaveCount(gctx, userID)
		if err != nil {
			return err
		}
		dashboard.PendingLeaveCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard assembly failed", zap.String("user_id", userID), zap.Error(err))
		return UserDashboard{}, err
	}
	return dashboard, nil
}

// rankPerformance assigns dense ranks over rows already sorted by total
// score descending.
func rankPerformance(rows []ScoreRow) []UserPerformance {
	users := make([]UserPerformance, 0, len(rows))
	rank := 0
	prev := math.Inf(1)
	for i, row := range rows {
		if row.TotalScore < prev {
			rank = i + 1
			prev = row.TotalScore
		}
		users = append(users, UserPerformance{
			Rank:             rank,
			UserID:           row.UserID,
			UserName:         row.UserName,
			AttendanceScore:  row.AttendanceScore,
			PunctualityScore: row.PunctualityScore,
			ReliabilityScore: row.ReliabilityScore,
			TotalScore:       row.TotalScore,
			Grade:            row.Grade,
		})
	}
	return users
}

func attendanceRate(present, leave, workingDays int) int {
	if workingDays <= 0 {
		return 0
	}
	return int(math.Round(float64(present+leave) / float64(workingDays) * 100))
}

func punctualityRate(present, late int) int {
	if present <= 0 {
		return 0
	}
	return int(math.Round(float64(present-late) / float64(present) * 100))
}
