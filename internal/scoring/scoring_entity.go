package scoring

import (
	"time"

	"github.com/google/uuid"
)

const (
	PeriodDaily   = "DAILY"
	PeriodWeekly  = "WEEKLY"
	PeriodMonthly = "MONTHLY"
	PeriodYearly  = "YEARLY"
)

type MonthlyScore struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_monthly_scores_user_period"`
	ScoreDate        time.Time `gorm:"column:score_date;type:date;not null;uniqueIndex:idx_monthly_scores_user_period"`
	ScorePeriod      string    `gorm:"column:score_period;type:varchar(10);not null;uniqueIndex:idx_monthly_scores_user_period"`
	AttendanceScore  float64   `gorm:"column:attendance_score;type:numeric(5,2);not null"`
	PunctualityScore float64   `gorm:"column:punctuality_score;type:numeric(5,2);not null"`
	ReliabilityScore float64   `gorm:"column:reliability_score;type:numeric(5,2);not null"`
	TotalScore       float64   `gorm:"column:total_score;type:numeric(5,2);not null"`
	Grade            string    `gorm:"column:grade;type:varchar(2);not null"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
	User             *UserRef  `gorm:"foreignKey:UserID;references:ID"`
}

func (MonthlyScore) TableName() string {
	return "monthly_scores"
}

// UserRef is a read-only projection of the externally-owned users table.
type UserRef struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"column:full_name"`
	StoreID  uuid.UUID `gorm:"column:store_id;type:uuid"`
	Active   bool      `gorm:"column:active"`
}

func (UserRef) TableName() string {
	return "users"
}

// MonthlyStats are the per-user aggregates the score is derived from.
type MonthlyStats struct {
	PresentDays       int
	OnLeaveDays       int
	ClockedInDays     int
	LateDays          int
	UnplannedAbsences int
}
