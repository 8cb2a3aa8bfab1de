package settings

import (
	"context"
	"time"

	"github.com/kislikjeka/handygo/pkg/money"
)

// FareCache caches the global fare between requests
type FareCache interface {
	// GetFare returns the cached fare and whether it was present
	GetFare(ctx context.Context) (money.Amount, bool, error)
	SetFare(ctx context.Context, fare money.Amount, ttl time.Duration) error
	InvalidateFare(ctx context.Context) error
}

// Repository persists platform settings
type Repository interface {
	// GetFare returns ErrFareNotSet when no fare has been stored
	GetFare(ctx context.Context) (money.Amount, error)
	SetFare(ctx context.Context, fare money.Amount, updatedAt time.Time) error
}
