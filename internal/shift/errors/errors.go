package shifterrors

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var (
	ErrInvalidStoreID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid store id",
		http.StatusBadRequest,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrInvalidShiftID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid shift id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"effective_from must be before or equal effective_to",
		http.StatusBadRequest,
	)
	ErrInvalidWeekday = apperror.New(
		apperror.CodeInvalidInput,
		"days_of_week entries must be 0 (Sunday) through 6 (Saturday)",
		http.StatusBadRequest,
	)
	ErrInvalidShiftTimes = apperror.New(
		apperror.CodeInvalidInput,
		"shift times must be HH:MM",
		http.StatusBadRequest,
	)
	ErrShiftNotFound = apperror.New(
		apperror.CodeNotFound,
		"shift not found",
		http.StatusNotFound,
	)
	ErrShiftNameTaken = apperror.New(
		apperror.CodeConflict,
		"a shift with this name already exists for the store",
		http.StatusConflict,
	)
	ErrAssignmentOverlap = apperror.New(
		apperror.CodeConflict,
		"an active assignment already covers an overlapping date range",
		http.StatusConflict,
	)
	ErrShiftInUse = apperror.New(
		apperror.CodeConflict,
		"shift is still referenced by active assignments",
		http.StatusConflict,
	)
	ErrNoActiveShift = apperror.New(
		apperror.CodeNotFound,
		"no active shift assignment for this user and date",
		http.StatusNotFound,
	)
)
