package reporting

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AttendanceAggRow is one user's attendance tally for a month.
type AttendanceAggRow struct {
	UserID      string
	UserName    string
	PresentDays int
	AbsentDays  int
	HalfDays    int
	LeaveDays   int
	RemoteDays  int
	LateDays    int
}

// LeaveAggRow is one (leave type, status) bucket for a store and month.
type LeaveAggRow struct {
	LeaveTypeName string
	Status        string
	Requests      int
	TotalDays     int
}

// ScoreRow is one user's stored monthly score.
type ScoreRow struct {
	UserID           string
	UserName         string
	AttendanceScore  float64
	PunctualityScore float64
	ReliabilityScore float64
	TotalScore       float64
	Grade            string
}

//go:generate mockgen -source=reporting_repo.go -destination=mock/reporting_repo_mock.go -package=mock
type Repository interface {
	AttendanceByStore(ctx context.Context, storeID string, from, to time.Time) ([]AttendanceAggRow, error)
	LeaveByStore(ctx context.Context, storeID string, from, to time.Time) ([]LeaveAggRow, error)
	ScoresByStore(ctx context.Context, storeID string, scoreDate time.Time) ([]ScoreRow, error)
	UserScoreWithRank(ctx context.Context, userID string, scoreDate time.Time) (*ScoreRow, int, error)
	PresentDayCount(ctx context.Context, userID string, from, to time.Time) (int, error)
	PendingLeaveCount(ctx context.Context, userID string) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) AttendanceByStore(ctx context.Context, storeID string, from, to time.Time) ([]AttendanceAggRow, error) {
	var rows []AttendanceAggRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id::text                                                                   AS user_id,
			u.full_name                                                                  AS user_name,
			COUNT(a.id) FILTER (WHERE a.status = 'PRESENT')                              AS present_days,
			COUNT(a.id) FILTER (WHERE a.status = 'ABSENT')                               AS absent_days,
			COUNT(a.id) FILTER (WHERE a.status = 'HALF_DAY')                             AS half_days,
			COUNT(a.id) FILTER (WHERE a.status = 'ON_LEAVE')                             AS leave_days,
			COUNT(a.id) FILTER (WHERE a.status IN ('REMOTE_WORK', 'BUSINESS_TRAVEL'))    AS remote_days,
			COUNT(a.id) FILTER (WHERE a.clock_in_at IS NOT NULL AND s.start_time IS NOT NULL AND
				(EXTRACT(HOUR FROM a.clock_in_at) * 60 + EXTRACT(MINUTE FROM a.clock_in_at)) >
				(split_part(s.start_time, ':', 1)::int * 60 + split_part(s.start_time, ':', 2)::int + 15)) AS late_days
		FROM users u
		LEFT JOIN attendance_records a
			ON a.user_id = u.id
			AND a.date BETWEEN ? AND ?
			AND a.deleted_at IS NULL
		LEFT JOIN shifts s ON s.id = a.shift_id
		WHERE u.store_id = ? AND u.active = true
		GROUP BY u.id, u.full_name
		ORDER BY u.full_name ASC
	`, from.Format("2006-01-02"), to.Format("2006-01-02"), storeID).Scan(&rows).Error
	return rows, err
}

func (r *repository) LeaveByStore(ctx context.Context, storeID string, from, to time.Time) ([]LeaveAggRow, error) {
	var rows []LeaveAggRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			lt.name          AS leave_type_name,
			lr.status        AS status,
			COUNT(lr.id)     AS requests,
			COALESCE(SUM(lr.total_days), 0) AS total_days
		FROM leave_requests lr
		JOIN users u        ON u.id = lr.user_id
		JOIN leave_types lt ON lt.id = lr.leave_type_id
		WHERE u.store_id = ?
		  AND lr.start_date <= ?
		  AND lr.end_date >= ?
		  AND lr.deleted_at IS NULL
		GROUP BY lt.name, lr.status
		ORDER BY lt.name ASC, lr.status ASC
	`, storeID, to.Format("2006-01-02"), from.Format("2006-01-02")).Scan(&rows).Error
	return rows, err
}

func (r *repository) ScoresByStore(ctx context.Context, storeID string, scoreDate time.Time) ([]ScoreRow, error) {
	var rows []ScoreRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id::text          AS user_id,
			u.full_name         AS user_name,
			ms.attendance_score,
			ms.punctuality_score,
			ms.reliability_score,
			ms.total_score,
			ms.grade
		FROM monthly_scores ms
		JOIN users u ON u.id = ms.user_id
		WHERE u.store_id = ? AND u.active = true
		  AND ms.score_date = ? AND ms.score_period = 'MONTHLY'
		ORDER BY ms.total_score DESC, u.full_name ASC
	`, storeID, scoreDate.Format("2006-01-02")).Scan(&rows).Error
	return rows, err
}

// UserScoreWithRank returns the user's stored score and a dense rank across
// all users for the same month (1 + count of strictly higher totals).
func (r *repository) UserScoreWithRank(ctx context.Context, userID string, scoreDate time.Time) (*ScoreRow, int, error) {
	var row struct {
		ScoreRow
		Rank int
	}
	result := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id::text          AS user_id,
			u.full_name         AS user_name,
			ms.attendance_score,
			ms.punctuality_score,
			ms.reliability_score,
			ms.total_score,
			ms.grade,
			1 + (
				SELECT COUNT(*) FROM monthly_scores o
				WHERE o.score_date = ms.score_date
				  AND o.score_period = ms.score_period
				  AND o.total_score > ms.total_score
			) AS rank
		FROM monthly_scores ms
		JOIN users u ON u.id = ms.user_id
		WHERE ms.user_id = ? AND ms.score_date = ? AND ms.score_period = 'MONTHLY'
	`, userID, scoreDate.Format("2006-01-02")).Scan(&row)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, 0, nil
	}
	return &row.ScoreRow, row.Rank, nil
}

func (r *repository) PresentDayCount(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM attendance_records
		WHERE user_id = ?
		  AND date BETWEEN ? AND ?
		  AND status IN ('PRESENT', 'REMOTE_WORK', 'BUSINESS_TRAVEL')
		  AND deleted_at IS NULL
	`, userID, from.Format("2006-01-02"), to.Format("2006-01-02")).Scan(&count).Error
	return int(count), err
}

func (r *repository) PendingLeaveCount(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM leave_requests
		WHERE user_id = ? AND status = 'PENDING' AND deleted_at IS NULL
	`, userID).Scan(&count).Error
	return int(count), err
}
