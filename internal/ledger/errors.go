package ledger

import apperr "github.com/kislikjeka/handygo/internal/shared/errors"

// Account errors
var (
	ErrAccountNotFound     = apperr.NotFound("wallet account")
	ErrInvalidAccount      = apperr.Validation("account ID is required")
	ErrBankDetailsRequired = apperr.Validation("bank details are required before withdrawal")
)

// Transaction errors
var (
	ErrInvalidTransactionType = apperr.Validation("invalid transaction type")
	ErrInvalidAmount          = apperr.Validation("amount must be greater than zero")
	ErrTransactionNotFound    = apperr.NotFound("transaction")
	ErrAlreadyRefunded        = apperr.Conflict("booking fee already refunded")
	ErrDuplicateReference     = apperr.Conflict("transaction reference already recorded")
	ErrReferenceRequired      = apperr.Validation("payment reference is required")
)

// Balance errors
var (
	ErrInsufficientBalance = apperr.InsufficientBalance("insufficient wallet balance")
	ErrBelowMinimum        = apperr.Validation("amount is below the minimum withdrawal")
)
