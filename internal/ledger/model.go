package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/pkg/money"
)

// TransactionType classifies a wallet transaction
type TransactionType string

const (
	TxTypeBookingFee TransactionType = "booking-fee"
	TxTypeRefund     TransactionType = "refund"
	TxTypeAutoRefund TransactionType = "auto-refund"
	TxTypePayment    TransactionType = "payment"
	TxTypeEarnings   TransactionType = "earnings"
	TxTypeWithdrawal TransactionType = "withdrawal"
	TxTypeTopUp      TransactionType = "top-up"
)

// IsValid reports whether the type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TxTypeBookingFee, TxTypeRefund, TxTypeAutoRefund, TxTypePayment,
		TxTypeEarnings, TxTypeWithdrawal, TxTypeTopUp:
		return true
	}
	return false
}

// IsRefund reports whether the type compensates a booking fee
func (t TransactionType) IsRefund() bool {
	return t == TxTypeRefund || t == TxTypeAutoRefund
}

// TransactionStatus is the settlement state of a transaction
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
)

// Transaction is an immutable signed wallet entry.
// Debits carry a negative amount, credits a positive one.
type Transaction struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Amount      money.Amount
	Type        TransactionType
	Status      TransactionStatus
	BookingID   *uuid.UUID
	Reference   string
	Description string
	Metadata    map[string]string
	CreatedAt   time.Time
}

// Validate checks the sign convention and required fields
func (t *Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return ErrInvalidAccount
	}
	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Entry describes a single debit or credit request
type Entry struct {
	AccountID   uuid.UUID
	Amount      money.Amount // always positive; the operation decides the sign
	Type        TransactionType
	Status      TransactionStatus
	BookingID   *uuid.UUID
	Reference   string
	Description string
	Metadata    map[string]string
}

// BankDetails are required before a withdrawal
type BankDetails struct {
	BankName      string
	AccountNumber string
}

// Complete reports whether both bank fields are present
func (b *BankDetails) Complete() bool {
	return b != nil && b.BankName != "" && b.AccountNumber != ""
}

// RefundParams identifies the booking fee to compensate
type RefundParams struct {
	BookingID uuid.UUID
	AccountID uuid.UUID
	Type      TransactionType // refund or auto-refund
	// RecordedFee is the fee stored on the booking, used when no fee transaction exists
	RecordedFee money.Amount
	Reason      string
}

// PaymentParams splits a booking payment between user and handyman
type PaymentParams struct {
	BookingID  uuid.UUID
	UserID     uuid.UUID
	HandymanID uuid.UUID
	Amount     money.Amount
	PaymentID  uuid.UUID
}

// Settlement is the pair of transactions written by a payment
type Settlement struct {
	Payment  *Transaction
	Earnings *Transaction
}

// WithdrawParams is a handyman payout request
type WithdrawParams struct {
	AccountID uuid.UUID
	Amount    money.Amount
}

// WithdrawResult is the pending withdrawal and the balance after the debit
type WithdrawResult struct {
	Transaction *Transaction
	NewBalance  money.Amount
}

// TopUpParams confirms a wallet top-up captured by the payment gateway
type TopUpParams struct {
	AccountID uuid.UUID
	Amount    money.Amount
	Reference string
}

// Reconciliation compares the cached balance with the transaction sum
type Reconciliation struct {
	AccountID     uuid.UUID
	CachedBalance money.Amount
	LedgerBalance money.Amount
}

// Balanced reports whether the cached balance equals the ledger sum
func (r *Reconciliation) Balanced() bool {
	return r.CachedBalance == r.LedgerBalance
}

// TransactionFilters defines filters for listing transactions
type TransactionFilters struct {
	Type   *TransactionType
	Limit  int
	Offset int
}
