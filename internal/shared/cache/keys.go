package cache

import (
	"fmt"
	"time"
)

// Key builders. Namespaces per domain so invalidation stays targeted.

func CurrentShiftKey(userID string, date time.Time) string {
	return fmt.Sprintf("shift:current:%s:%s", userID, date.Format("2006-01-02"))
}

func AttendanceDayKey(userID string, date time.Time) string {
	return fmt.Sprintf("attendance:day:%s:%s", userID, date.Format("2006-01-02"))
}

func AttendanceMonthKey(userID string, year int, month time.Month) string {
	return fmt.Sprintf("attendance:month:%s:%04d-%02d", userID, year, month)
}

func PendingLeaveKey() string {
	return "leave:pending"
}

func UserLeaveKey(userID string) string {
	return fmt.Sprintf("leave:user:%s", userID)
}

func LeaveBalanceKey(userID string, year int) string {
	return fmt.Sprintf("leave:balance:%s:%d", userID, year)
}

func UserScoreKey(userID string, year int, month time.Month) string {
	return fmt.Sprintf("score:user:%s:%04d-%02d", userID, year, month)
}

func LeaderboardKey(year int, month time.Month) string {
	return fmt.Sprintf("score:leaderboard:%04d-%02d", year, month)
}

func StoreReportKey(kind, storeID string, year int, month time.Month) string {
	return fmt.Sprintf("report:%s:%s:%04d-%02d", kind, storeID, year, month)
}

func JobLockKey(name string) string {
	return fmt.Sprintf("lock:job:%s", name)
}
