package attendance

type ClockInRequest struct {
	ShiftID *string `json:"shift_id" validate:"omitempty,uuid"`
	Photo   []byte  `json:"photo,omitempty"`
	Remarks *string `json:"remarks"`
}

type ClockOutRequest struct {
	Photo   []byte  `json:"photo,omitempty"`
	Remarks *string `json:"remarks"`
}

// UpdateRequest is the admin correction patch. Nil fields are untouched.
type UpdateRequest struct {
	Status     *string `json:"status"`
	ClockInAt  *string `json:"clock_in_at"`
	ClockOutAt *string `json:"clock_out_at"`
	Remarks    *string `json:"remarks"`
}

type AttendanceResponse struct {
	ID               string   `json:"id"`
	UserID           string   `json:"user_id"`
	Date             string   `json:"date"`
	ShiftID          *string  `json:"shift_id,omitempty"`
	Status           string   `json:"status"`
	ClockInAt        *string  `json:"clock_in_at,omitempty"`
	ClockOutAt       *string  `json:"clock_out_at,omitempty"`
	ClockInPhotoURL  *string  `json:"clock_in_photo_url,omitempty"`
	ClockOutPhotoURL *string  `json:"clock_out_photo_url,omitempty"`
	TotalHours       *float64 `json:"total_hours,omitempty"`
	Remarks          *string  `json:"remarks,omitempty"`
	// Warning carries the non-blocking lateness/earliness notice.
	Warning string `json:"warning,omitempty"`
}
