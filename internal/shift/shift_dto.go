package shift

type CreateShiftRequest struct {
	StoreID              string `json:"store_id" validate:"required,uuid"`
	Name                 string `json:"name" validate:"required,max=100"`
	StartTime            string `json:"start_time" validate:"required"`
	EndTime              string `json:"end_time" validate:"required"`
	BreakDurationMinutes int    `json:"break_duration_minutes" validate:"min=0"`
	GracePeriodMinutes   int    `json:"grace_period_minutes" validate:"min=0"`
}

type UpdateShiftRequest struct {
	Name                 *string `json:"name" validate:"omitempty,max=100"`
	StartTime            *string `json:"start_time"`
	EndTime              *string `json:"end_time"`
	BreakDurationMinutes *int    `json:"break_duration_minutes" validate:"omitempty,min=0"`
	GracePeriodMinutes   *int    `json:"grace_period_minutes" validate:"omitempty,min=0"`
}

type AssignShiftRequest struct {
	UserID        string  `json:"user_id" validate:"required,uuid"`
	ShiftID       string  `json:"shift_id" validate:"required,uuid"`
	EffectiveFrom string  `json:"effective_from" validate:"required"`
	EffectiveTo   *string `json:"effective_to"`
	DaysOfWeek    []int   `json:"days_of_week" validate:"required,min=1,dive,min=0,max=6"`
	IsDefault     bool    `json:"is_default"`
}

type ShiftResponse struct {
	ID                   string `json:"id"`
	StoreID              string `json:"store_id"`
	Name                 string `json:"name"`
	StartTime            string `json:"start_time"`
	EndTime              string `json:"end_time"`
	BreakDurationMinutes int    `json:"break_duration_minutes"`
	GracePeriodMinutes   int    `json:"grace_period_minutes"`
	Active               bool   `json:"active"`
}

type AssignmentResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	ShiftID       string  `json:"shift_id"`
	ShiftName     string  `json:"shift_name,omitempty"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	DaysOfWeek    []int   `json:"days_of_week"`
	IsDefault     bool    `json:"is_default"`
}

// ResolvedShift is the shift context handed to the attendance tracker for
// a specific user and date.
type ResolvedShift struct {
	ShiftID              string `json:"shift_id"`
	Name                 string `json:"name"`
	StartTime            string `json:"start_time"`
	EndTime              string `json:"end_time"`
	BreakDurationMinutes int    `json:"break_duration_minutes"`
	GracePeriodMinutes   int    `json:"grace_period_minutes"`
}
