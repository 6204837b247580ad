package attendanceerrors

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var (
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrAlreadyClockedIn = apperror.New(
		apperror.CodeConflict,
		"already clocked in for today",
		http.StatusConflict,
	)
	ErrAlreadyClockedOut = apperror.New(
		apperror.CodeConflict,
		"already clocked out for today",
		http.StatusConflict,
	)
	ErrNoClockIn = apperror.New(
		apperror.CodeNotFound,
		"no clock-in found for today",
		http.StatusNotFound,
	)
	ErrNoShiftContext = apperror.New(
		apperror.CodeInvalidInput,
		"no shift assigned for this user and date",
		http.StatusBadRequest,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"attendance record not found",
		http.StatusNotFound,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"invalid attendance status",
		http.StatusBadRequest,
	)
	ErrInvalidTimestamp = apperror.New(
		apperror.CodeInvalidInput,
		"invalid timestamp, expected RFC3339",
		http.StatusBadRequest,
	)
)
