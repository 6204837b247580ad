package scoring

type ScoreResponse struct {
	UserID           string  `json:"user_id"`
	UserName         string  `json:"user_name,omitempty"`
	ScoreDate        string  `json:"score_date"`
	ScorePeriod      string  `json:"score_period"`
	AttendanceScore  float64 `json:"attendance_score"`
	PunctualityScore float64 `json:"punctuality_score"`
	ReliabilityScore float64 `json:"reliability_score"`
	TotalScore       float64 `json:"total_score"`
	Grade            string  `json:"grade"`
}

type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name,omitempty"`
	TotalScore float64 `json:"total_score"`
	Grade      string  `json:"grade"`
}

type BatchError struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// BatchResult aggregates a fan-out run; one user's failure never aborts
// the rest.
type BatchResult struct {
	Year      int          `json:"year"`
	Month     int          `json:"month"`
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Errors    []BatchError `json:"errors,omitempty"`
}
