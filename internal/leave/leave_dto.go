package leave

type CreateLeaveRequest struct {
	LeaveTypeID string  `json:"leave_type_id" validate:"required,uuid"`
	StartDate   string  `json:"start_date" validate:"required"`
	EndDate     string  `json:"end_date" validate:"required"`
	DocumentURL *string `json:"document_url"`
	Comments    *string `json:"comments"`
}

// Decision is the single dispatch value for the transactional decision
// handler. Only an approval touches the balance.
type Decision struct {
	Status   string
	Comments *string
}

func Approve(comments *string) Decision {
	return Decision{Status: StatusApproved, Comments: comments}
}

func Reject(comments *string) Decision {
	return Decision{Status: StatusRejected, Comments: comments}
}

func Cancel(comments *string) Decision {
	return Decision{Status: StatusCancelled, Comments: comments}
}

type LeaveRequestResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	LeaveTypeID   string  `json:"leave_type_id"`
	LeaveTypeName string  `json:"leave_type_name,omitempty"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalDays     int     `json:"total_days"`
	Status        string  `json:"status"`
	DocumentURL   *string `json:"document_url,omitempty"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	ApprovedOn    *string `json:"approved_on,omitempty"`
	Comments      *string `json:"comments,omitempty"`
}

type BalanceResponse struct {
	LeaveTypeID    string `json:"leave_type_id"`
	LeaveTypeName  string `json:"leave_type_name,omitempty"`
	Year           int    `json:"year"`
	OpeningBalance int    `json:"opening_balance"`
	Earned         int    `json:"earned"`
	Used           int    `json:"used"`
	Balance        int    `json:"balance"`
}

type LeaveTypeResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Code             string `json:"code"`
	MaxDaysPerYear   int    `json:"max_days_per_year"`
	RequiresDocument bool   `json:"requires_document"`
	IsPaid           bool   `json:"is_paid"`
	CarryForward     bool   `json:"carry_forward"`
}
