package rating

import (
	"context"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/booking"
)

// Repository defines the interface for rating persistence operations
type Repository interface {
	// GetByBooking returns the rating of a booking or ErrRatingNotFound
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*Rating, error)
	// Upsert stores r, replacing any rating of the same booking
	Upsert(ctx context.Context, r *Rating) error
	ListByHandyman(ctx context.Context, handymanID uuid.UUID, limit int) ([]*Rating, error)

	GetSummary(ctx context.Context, handymanID uuid.UUID) (*Summary, error)
	// LockSummary is GetSummary holding the handyman row lock until the
	// transaction ends
	LockSummary(ctx context.Context, handymanID uuid.UUID) (*Summary, error)
	SaveSummary(ctx context.Context, s *Summary) error
}

// BookingLocker locks a booking row, which serialises submissions for it
type BookingLocker interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

// Transactor runs fn inside one database transaction
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
