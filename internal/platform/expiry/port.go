package expiry

import (
	"context"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/booking"
)

// BookingSource lists the bookings a sweep inspects
type BookingSource interface {
	ListPending(ctx context.Context) ([]*booking.Booking, error)
}

// Expirer moves a Pending booking to expired and refunds its fee
type Expirer interface {
	Expire(ctx context.Context, id uuid.UUID, reason booking.ExpiryReason) (*booking.Booking, error)
}
