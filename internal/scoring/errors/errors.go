package scoringerrors

import "go-workforce/internal/shared/apperror"

var (
	ErrInvalidPeriod = apperror.BadRequest("invalid scoring period")
	ErrFutureMonth   = apperror.BadRequest("cannot score a future month")
)
