package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

type LeaveType struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string         `gorm:"column:name;type:varchar(100);not null"`
	Code             string         `gorm:"column:code;type:varchar(20);not null;uniqueIndex"`
	MaxDaysPerYear   int            `gorm:"column:max_days_per_year;not null;default:0"`
	RequiresDocument bool           `gorm:"column:requires_document;not null;default:false"`
	IsPaid           bool           `gorm:"column:is_paid;not null;default:true"`
	CarryForward     bool           `gorm:"column:carry_forward;not null;default:false"`
	Active           bool           `gorm:"column:active;not null;default:true"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}

// Balance holds the per-user, per-type, per-year bookkeeping.
// Invariant at every committed state: balance = opening + earned - used.
type Balance struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_leave_balances_user_type_year"`
	LeaveTypeID    uuid.UUID  `gorm:"column:leave_type_id;type:uuid;not null;uniqueIndex:idx_leave_balances_user_type_year"`
	Year           int        `gorm:"column:year;not null;uniqueIndex:idx_leave_balances_user_type_year"`
	OpeningBalance int        `gorm:"column:opening_balance;not null;default:0"`
	Earned         int        `gorm:"column:earned;not null;default:0"`
	Used           int        `gorm:"column:used;not null;default:0"`
	Balance        int        `gorm:"column:balance;not null;default:0"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
	LeaveType      *LeaveType `gorm:"foreignKey:LeaveTypeID;references:ID"`
}

func (Balance) TableName() string {
	return "leave_balances"
}

type Request struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index:idx_leave_requests_user_dates"`
	LeaveTypeID uuid.UUID      `gorm:"column:leave_type_id;type:uuid;not null"`
	StartDate   time.Time      `gorm:"column:start_date;type:date;not null;index:idx_leave_requests_user_dates"`
	EndDate     time.Time      `gorm:"column:end_date;type:date;not null;index:idx_leave_requests_user_dates"`
	TotalDays   int            `gorm:"column:total_days;not null;default:1"`
	Status      string         `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`
	DocumentURL *string        `gorm:"column:document_url;type:varchar(255)"`
	ApprovedBy  *uuid.UUID     `gorm:"column:approved_by;type:uuid"`
	ApprovedOn  *time.Time     `gorm:"column:approved_on;type:timestamptz"`
	Comments    *string        `gorm:"column:comments;type:text"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
	LeaveType   *LeaveType     `gorm:"foreignKey:LeaveTypeID;references:ID"`
}

func (Request) TableName() string {
	return "leave_requests"
}
