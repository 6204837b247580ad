package events

import "time"

const LeaveApprovedTopic = "workforce.leave.approved.v1"

type LeaveApprovedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id"`
	LeaveTypeID string    `json:"leave_type_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	TotalDays   int       `json:"total_days"`
	ApprovedBy  string    `json:"approved_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}
