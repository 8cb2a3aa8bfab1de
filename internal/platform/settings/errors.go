package settings

import apperr "github.com/kislikjeka/handygo/internal/shared/errors"

var (
	ErrFareNotSet  = apperr.NotFound("fare setting")
	ErrInvalidFare = apperr.Validation("fare must be greater than zero")
)
