package apperror

import "fmt"

// AppError is the error currency of the service layer: a stable machine
// code for callers that branch on it, a human-readable message, and the
// HTTP status a transport layer would map it to. Domain packages declare
// sentinel values with New and compare them with errors.Is.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds a bare sentinel. The helpers in common.go cover the usual
// code/status pairings.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}
