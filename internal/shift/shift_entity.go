package shift

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Shift struct {
	ID                   uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID              uuid.UUID      `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_shifts_store_name"`
	Name                 string         `gorm:"column:name;type:varchar(100);not null;uniqueIndex:idx_shifts_store_name"`
	StartTime            string         `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime              string         `gorm:"column:end_time;type:varchar(5);not null"`
	BreakDurationMinutes int            `gorm:"column:break_duration_minutes;not null;default:0"`
	GracePeriodMinutes   int            `gorm:"column:grace_period_minutes;not null;default:0"`
	Active               bool           `gorm:"column:active;not null;default:true"`
	CreatedAt            time.Time      `gorm:"column:created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Shift) TableName() string {
	return "shifts"
}

type Assignment struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index:idx_shift_assignments_user"`
	ShiftID       uuid.UUID      `gorm:"column:shift_id;type:uuid;not null;index"`
	EffectiveFrom time.Time      `gorm:"column:effective_from;type:date;not null"`
	EffectiveTo   *time.Time     `gorm:"column:effective_to;type:date"`
	DaysOfWeek    string         `gorm:"column:days_of_week;type:varchar(20);not null"`
	IsDefault     bool           `gorm:"column:is_default;not null;default:false"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index"`
	Shift         *Shift         `gorm:"foreignKey:ShiftID;references:ID"`
}

func (Assignment) TableName() string {
	return "shift_assignments"
}

// MinutesOfDay parses an "HH:MM" shift time into minutes since midnight.
func MinutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatDaysOfWeek serializes a weekday set (0=Sunday .. 6=Saturday) to the
// CSV column representation, sorted and deduplicated.
func FormatDaysOfWeek(days []int) (string, error) {
	seen := map[int]bool{}
	uniq := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return "", fmt.Errorf("weekday %d out of range 0..6", d)
		}
		if !seen[d] {
			seen[d] = true
			uniq = append(uniq, d)
		}
	}
	sort.Ints(uniq)
	parts := make([]string, len(uniq))
	for i, d := range uniq {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ","), nil
}

// ParseDaysOfWeek reads the CSV column back into a weekday set.
func ParseDaysOfWeek(csv string) ([]int, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q", p)
		}
		days = append(days, d)
	}
	return days, nil
}

// ContainsWeekday reports whether the serialized weekday set covers wd.
func ContainsWeekday(csv string, wd time.Weekday) bool {
	days, err := ParseDaysOfWeek(csv)
	if err != nil {
		return false
	}
	for _, d := range days {
		if time.Weekday(d) == wd {
			return true
		}
	}
	return false
}
