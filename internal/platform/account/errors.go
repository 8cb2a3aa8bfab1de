package account

import apperr "github.com/kislikjeka/handygo/internal/shared/errors"

// Account errors
var (
	ErrAccountNotFound  = apperr.NotFound("account")
	ErrAccountExists    = apperr.Conflict("account already exists")
	ErrInvalidAccountID = apperr.Validation("account ID is required")
	ErrInvalidRole      = apperr.Validation("role must be user or handyman")
	ErrNameRequired     = apperr.Validation("name is required")
	ErrInvalidEmail     = apperr.Validation("invalid email address")
	ErrTokenRequired    = apperr.Validation("push token is required")
	ErrInvalidBank      = apperr.Validation("bank name and account number are required")
	ErrInvalidLocation  = apperr.Validation("invalid coordinates")
	ErrNotHandyman      = apperr.Forbidden("only handymen can do this")
)
