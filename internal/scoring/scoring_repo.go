package scoring

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=scoring_repo.go -destination=mock/scoring_repo_mock.go -package=mock
type Repository interface {
	// Upsert writes the score keyed by (user_id, score_date, score_period);
	// reruns overwrite, never duplicate.
	Upsert(ctx context.Context, score *MonthlyScore) error
	FindByMonth(ctx context.Context, year int, month time.Month) ([]MonthlyScore, error)
	FindTopByMonth(ctx context.Context, year int, month time.Month, limit int) ([]MonthlyScore, error)
	MonthlyStats(ctx context.Context, userID string, from, to time.Time) (MonthlyStats, error)
	ListActiveUserIDs(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, score *MonthlyScore) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "score_date"},
				{Name: "score_period"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"attendance_score",
				"punctuality_score",
				"reliability_score",
				"total_score",
				"grade",
				"updated_at",
			}),
		}).
		Create(score).Error
}

func (r *repository) FindByMonth(ctx context.Context, year int, month time.Month) ([]MonthlyScore, error) {
	var rows []MonthlyScore
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("score_date = ?", firstOfMonth(year, month).Format("2006-01-02")).
		Where("score_period = ?", PeriodMonthly).
		Order("total_score DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindTopByMonth(ctx context.Context, year int, month time.Month, limit int) ([]MonthlyScore, error) {
	var rows []MonthlyScore
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("score_date = ?", firstOfMonth(year, month).Format("2006-01-02")).
		Where("score_period = ?", PeriodMonthly).
		Order("total_score DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MonthlyStats aggregates the user's attendance rows for the month,
// joining shifts for the 15-minute lateness cutoff.
func (r *repository) MonthlyStats(ctx context.Context, userID string, from, to time.Time) (MonthlyStats, error) {
	var row struct {
		PresentDays       int
		OnLeaveDays       int
		ClockedInDays     int
		LateDays          int
		UnplannedAbsences int
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) FILTER (WHERE a.status IN ('PRESENT', 'REMOTE_WORK', 'BUSINESS_TRAVEL'))        AS present_days,
			COUNT(*) FILTER (WHERE a.status = 'ON_LEAVE')                                            AS on_leave_days,
			COUNT(*) FILTER (WHERE a.clock_in_at IS NOT NULL)                                        AS clocked_in_days,
			COUNT(*) FILTER (WHERE a.clock_in_at IS NOT NULL AND s.start_time IS NOT NULL AND
				(EXTRACT(HOUR FROM a.clock_in_at) * 60 + EXTRACT(MINUTE FROM a.clock_in_at)) >
				(split_part(s.start_time, ':', 1)::int * 60 + split_part(s.start_time, ':', 2)::int + 15)) AS late_days,
			COUNT(*) FILTER (WHERE a.status = 'ABSENT')                                              AS unplanned_absences
		FROM attendance_records a
		LEFT JOIN shifts s ON s.id = a.shift_id
		WHERE a.user_id = ?
		  AND a.date BETWEEN ? AND ?
		  AND a.deleted_at IS NULL
	`, userID, from.Format("2006-01-02"), to.Format("2006-01-02")).Scan(&row).Error
	if err != nil {
		return MonthlyStats{}, err
	}

	return MonthlyStats{
		PresentDays:       row.PresentDays,
		OnLeaveDays:       row.OnLeaveDays,
		ClockedInDays:     row.ClockedInDays,
		LateDays:          row.LateDays,
		UnplannedAbsences: row.UnplannedAbsences,
	}, nil
}

func (r *repository) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&UserRef{}).
		Where("active = ?", true).
		Pluck("id", &ids).Error
	return ids, err
}

func firstOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}
