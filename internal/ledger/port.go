package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/pkg/money"
)

// Repository defines the interface for wallet persistence operations
type Repository interface {
	// Balance operations
	GetBalance(ctx context.Context, accountID uuid.UUID) (money.Amount, error)
	// ApplyBalanceDelta adds delta to the cached balance in one conditional write.
	// It returns ErrInsufficientBalance when the result would go negative and
	// ErrAccountNotFound when the account does not exist.
	ApplyBalanceDelta(ctx context.Context, accountID uuid.UUID, delta money.Amount) (money.Amount, error)
	SumTransactions(ctx context.Context, accountID uuid.UUID) (money.Amount, error)
	GetBankDetails(ctx context.Context, accountID uuid.UUID) (*BankDetails, error)

	// Transaction operations (append-only)
	InsertTransaction(ctx context.Context, tx *Transaction) error
	FindBookingTransaction(ctx context.Context, bookingID, accountID uuid.UUID, types ...TransactionType) (*Transaction, error)
	FindByReference(ctx context.Context, txType TransactionType, reference string) (*Transaction, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, filters TransactionFilters) ([]*Transaction, error)
}

// Transactor runs fn inside one database transaction, joining any already in ctx
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// FareSource resolves the current global booking fare
type FareSource interface {
	Fare(ctx context.Context) (money.Amount, error)
}
