package booking

import apperr "github.com/kislikjeka/handygo/internal/shared/errors"

// Lookup errors
var (
	ErrBookingNotFound = apperr.NotFound("booking")
	ErrPaymentExists   = apperr.Conflict("booking already has a payment")
)

// Validation errors
var (
	ErrInvalidStatus     = apperr.Validation("invalid booking status")
	ErrInvalidSlot       = apperr.Validation("time slot must be one of Slot 1, Slot 2, Slot 3")
	ErrInvalidDate       = apperr.Validation("date must be formatted as YYYY-MM-DD")
	ErrCategoryRequired  = apperr.Validation("category is required")
	ErrUserRequired      = apperr.Validation("user ID is required")
	ErrHandymanRequired  = apperr.Validation("handyman ID is required")
	ErrSelfBooking       = apperr.Validation("a user cannot book themselves")
	ErrSlotTaken         = apperr.Validation("handyman already has a booking in this slot")
	ErrInvalidFare       = apperr.Validation("fare cannot be negative")
	ErrInvalidPayment    = apperr.Validation("payment amount must be greater than zero")
	ErrInvalidCoordinate = apperr.Validation("invalid coordinates")
	ErrInvalidExpiry     = apperr.Validation("invalid expiry reason")
)

// Authorization errors
var (
	ErrNotOwner       = apperr.Forbidden("only the booking owner can do this")
	ErrNotAssigned    = apperr.Forbidden("only the assigned handyman can do this")
	ErrNotParticipant = apperr.Forbidden("not a participant of this booking")
)

// State machine errors
var (
	ErrInvalidTransition = apperr.InvalidTransition("booking cannot move to the requested status")
	// ErrStatusConflict is returned by a repository when the compare-and-set found a different status
	ErrStatusConflict = apperr.InvalidTransition("booking status changed concurrently")
)
