package reporting

import "go-workforce/internal/attendance"

type UserAttendanceSummary struct {
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
	PresentDays     int    `json:"present_days"`
	AbsentDays      int    `json:"absent_days"`
	HalfDays        int    `json:"half_days"`
	LeaveDays       int    `json:"leave_days"`
	RemoteDays      int    `json:"remote_days"`
	LateDays        int    `json:"late_days"`
	AttendanceRate  int    `json:"attendance_rate"`
	PunctualityRate int    `json:"punctuality_rate"`
}

type StoreAttendanceReport struct {
	StoreID          string                  `json:"store_id"`
	Year             int                     `json:"year"`
	Month            int                     `json:"month"`
	TotalWorkingDays int                     `json:"total_working_days"`
	Users            []UserAttendanceSummary `json:"users"`
}

type LeaveTypeBreakdown struct {
	LeaveTypeName    string `json:"leave_type_name"`
	TotalRequests    int    `json:"total_requests"`
	ApprovedRequests int    `json:"approved_requests"`
	ApprovedDays     int    `json:"approved_days"`
}

type StoreLeaveReport struct {
	StoreID        string               `json:"store_id"`
	Year           int                  `json:"year"`
	Month          int                  `json:"month"`
	CountsByStatus map[string]int       `json:"counts_by_status"`
	ByType         []LeaveTypeBreakdown `json:"by_type"`
}

type UserPerformance struct {
	Rank             int     `json:"rank"`
	UserID           string  `json:"user_id"`
	UserName         string  `json:"user_name"`
	AttendanceScore  float64 `json:"attendance_score"`
	PunctualityScore float64 `json:"punctuality_score"`
	ReliabilityScore float64 `json:"reliability_score"`
	TotalScore       float64 `json:"total_score"`
	Grade            string  `json:"grade"`
}

type StorePerformanceReport struct {
	StoreID string            `json:"store_id"`
	Year    int               `json:"year"`
	Month   int               `json:"month"`
	Users   []UserPerformance `json:"users"`
}

type DashboardScore struct {
	TotalScore float64 `json:"total_score"`
	Grade      string  `json:"grade"`
	Rank       int     `json:"rank"`
}

type UserDashboard struct {
	UserID            string                         `json:"user_id"`
	Date              string                         `json:"date"`
	TodayAttendance   *attendance.AttendanceResponse `json:"today_attendance,omitempty"`
	MonthPresentDays  int                            `json:"month_present_days"`
	CurrentScore      *DashboardScore                `json:"current_score,omitempty"`
	PendingLeaveCount int                            `json:"pending_leave_count"`
}
