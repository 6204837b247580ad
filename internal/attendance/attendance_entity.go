package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending        = "PENDING"
	StatusPresent        = "PRESENT"
	StatusAbsent         = "ABSENT"
	StatusHalfDay        = "HALF_DAY"
	StatusOnLeave        = "ON_LEAVE"
	StatusRemoteWork     = "REMOTE_WORK"
	StatusBusinessTravel = "BUSINESS_TRAVEL"
	StatusPublicHoliday  = "PUBLIC_HOLIDAY"
)

func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPresent, StatusAbsent, StatusHalfDay,
		StatusOnLeave, StatusRemoteWork, StatusBusinessTravel, StatusPublicHoliday:
		return true
	}
	return false
}

type Record struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_attendance_user_date"`
	Date             time.Time      `gorm:"column:date;type:date;not null;uniqueIndex:idx_attendance_user_date"`
	ShiftID          *uuid.UUID     `gorm:"column:shift_id;type:uuid"`
	Status           string         `gorm:"column:status;type:varchar(20);not null;default:'PENDING'"`
	ClockInAt        *time.Time     `gorm:"column:clock_in_at;type:timestamptz"`
	ClockOutAt       *time.Time     `gorm:"column:clock_out_at;type:timestamptz"`
	ClockInPhotoURL  *string        `gorm:"column:clock_in_photo_url;type:varchar(255)"`
	ClockOutPhotoURL *string        `gorm:"column:clock_out_photo_url;type:varchar(255)"`
	TotalHours       *float64       `gorm:"column:total_hours;type:numeric(5,2)"`
	Remarks          *string        `gorm:"column:remarks;type:text"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Record) TableName() string {
	return "attendance_records"
}
