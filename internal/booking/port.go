package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/money"
)

// Repository defines the interface for booking persistence operations
type Repository interface {
	// Create persists a new booking. It returns ErrSlotTaken when the handyman
	// already holds an active booking in the same slot.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// GetByIDForUpdate reads the booking and locks its row until the
	// surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// Transition applies t only if the stored status still equals t.From.
	// It returns ErrStatusConflict when no row matched.
	Transition(ctx context.Context, t Transition) (*Booking, error)

	ListByUser(ctx context.Context, userID uuid.UUID, filters Filters) ([]*Booking, error)
	ListByHandyman(ctx context.Context, handymanID uuid.UUID, filters Filters) ([]*Booking, error)
	ListPending(ctx context.Context) ([]*Booking, error)
	BookedSlots(ctx context.Context, handymanID uuid.UUID, serviceDate string) ([]Slot, error)
	SlotTaken(ctx context.Context, handymanID uuid.UUID, serviceDate string, slot Slot) (bool, error)

	// Arrival operations
	ListArrivalCandidates(ctx context.Context, handymanID uuid.UUID) ([]*Booking, error)
	// MarkArrived flips arrival_notified from false to true. It reports
	// false when the flag was already set.
	MarkArrived(ctx context.Context, id uuid.UUID) (bool, error)

	// Payment operations
	CreatePayment(ctx context.Context, p *Payment) error
	Stats(ctx context.Context, handymanID uuid.UUID) (*Stats, error)
}

// Wallet is the subset of the ledger used by booking side effects
type Wallet interface {
	ChargeBookingFee(ctx context.Context, accountID, bookingID uuid.UUID, fee money.Amount) (*ledger.Transaction, error)
	Refund(ctx context.Context, p ledger.RefundParams) (*ledger.Transaction, error)
	SettlePayment(ctx context.Context, p ledger.PaymentParams) (*ledger.Settlement, error)
}

// FareSource resolves the current global booking fare
type FareSource interface {
	Fare(ctx context.Context) (money.Amount, error)
}

// Transactor runs fn inside one database transaction
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher hands lifecycle events to the notification pipeline
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// LocationStore persists the last known handyman position
type LocationStore interface {
	UpdateLocation(ctx context.Context, accountID uuid.UUID, p geo.Point) error
}

// Throttle grants at most one action per key per interval
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
}
