package account

import (
	"context"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/geo"
)

// Repository defines the interface for account persistence operations
type Repository interface {
	// Create creates a new account, returning ErrAccountExists on a duplicate ID
	Create(ctx context.Context, a *Account) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	UpdatePushToken(ctx context.Context, id uuid.UUID, token string) error
	UpdateLocation(ctx context.Context, id uuid.UUID, p geo.Point) error
	UpdateBankDetails(ctx context.Context, id uuid.UUID, bank ledger.BankDetails) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}
