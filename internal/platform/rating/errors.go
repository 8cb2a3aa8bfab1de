package rating

import apperr "github.com/kislikjeka/handygo/internal/shared/errors"

// Rating errors
var (
	ErrRatingNotFound = apperr.NotFound("rating")
	ErrInvalidScore   = apperr.Validation("rating must be a whole number between 1 and 5")
	ErrReviewTooLong  = apperr.Validation("review must be at most 1000 characters")
	ErrNotOwner       = apperr.Forbidden("only the customer of the booking can rate it")
	ErrNotRateable    = apperr.InvalidTransition("only paid bookings can be rated")
)
