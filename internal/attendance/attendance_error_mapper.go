package attendance

import (
	"errors"
	"strings"

	attendanceerrors "go-workforce/internal/attendance/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapStorageError surfaces the (user_id, date) uniqueness race as Conflict:
// two concurrent clock-ins for the same day are resolved by the constraint,
// and the loser sees the same error as an ordinary duplicate.
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "idx_attendance_user_date" {
			return attendanceerrors.ErrAlreadyClockedIn
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "idx_attendance_user_date") {
		return attendanceerrors.ErrAlreadyClockedIn
	}

	return err
}
