package invoice

import apperr "github.com/kislikjeka/handygo/internal/shared/errors"

var (
	ErrInvoiceNotFound = apperr.NotFound("invoice")
	ErrItemNotFound    = apperr.NotFound("invoice item")

	ErrItemNameRequired  = apperr.Validation("item name is required")
	ErrInvalidQuantity   = apperr.Validation("quantity must be a whole number between 1 and 10000")
	ErrInvalidUnitPrice  = apperr.Validation("unit price must be between 0 and 100000000.00")
	ErrInvalidFare       = apperr.Validation("fare must be between 0 and 100000000.00")
	ErrLineTotalTooLarge = apperr.Validation("line total exceeds 100000000.00")
	ErrFareTooLarge      = apperr.Validation("invoice total exceeds 100000000.00")
	ErrInvoiceClosed     = apperr.InvalidTransition("invoice can no longer be changed")

	ErrNotAssigned    = apperr.Forbidden("only the assigned handyman can edit the invoice")
	ErrNotParticipant = apperr.Forbidden("not a participant of this booking")
)
