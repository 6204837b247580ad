package leaveerrors

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
	ErrInvalidApproverID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid approver id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave type not found or inactive",
		http.StatusNotFound,
	)
	ErrDocumentRequired = apperror.New(
		apperror.CodeInvalidInput,
		"this leave type requires a supporting document",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidInput,
		"insufficient leave balance",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"an approved leave already covers an overlapping period",
		http.StatusConflict,
	)
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrAlreadyProcessed = apperror.New(
		apperror.CodeInvalidState,
		"leave request has already been processed",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be APPROVED, REJECTED or CANCELLED",
		http.StatusBadRequest,
	)
)
