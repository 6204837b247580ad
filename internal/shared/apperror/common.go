package apperror

import (
	"fmt"
	"net/http"
)

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrConflict = New(
		CodeConflict,
		"The request conflicts with the current state of the resource",
		http.StatusConflict,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)
)

// NotFound builds a resource-specific not-found error.
func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// Conflict builds a state-conflict error (duplicate writes, overlaps,
// re-processing a finalized resource).
func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// BadRequest builds a validation / business-rule rejection.
func BadRequest(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("%s is required", field), http.StatusBadRequest)
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("%s is invalid", field), http.StatusBadRequest)
}

// IsCode reports whether err is an *AppError carrying the given code.
func IsCode(err error, code string) bool {
	for err != nil {
		if ae, ok := err.(*AppError); ok {
			return ae.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
