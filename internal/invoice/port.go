package invoice

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	Get(ctx context.Context, bookingID uuid.UUID) (*Invoice, error)
	// GetOrCreateForUpdate inserts seed when no invoice exists, then returns
	// the stored invoice with its items, locked for the rest of the transaction
	GetOrCreateForUpdate(ctx context.Context, seed *Invoice) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error

	AddItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, bookingID, itemID uuid.UUID) error
	ReplaceItems(ctx context.Context, bookingID uuid.UUID, items []Item) error
}

// BookingStore is the booking side of the invoice
type BookingStore interface {
	GetBookingFare(ctx context.Context, bookingID uuid.UUID) (*BookingFare, error)
	// LockBookingFare is GetBookingFare holding the booking row lock until
	// the transaction ends
	LockBookingFare(ctx context.Context, bookingID uuid.UUID) (*BookingFare, error)
	ApplyFare(ctx context.Context, u FareUpdate) error
	ListLegacyMaterials(ctx context.Context) ([]LegacyBooking, error)
	ClearLegacyMaterials(ctx context.Context, bookingID uuid.UUID) error
}

// Transactor runs fn inside one database transaction
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
