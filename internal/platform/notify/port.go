package notify

//go:generate mockgen -source=port.go -destination=port_mock.go -package=notify

import (
	"context"

	"github.com/google/uuid"
)

// Sender delivers a push message to one device token
type Sender interface {
	Send(ctx context.Context, token string, msg Message) error
}

// TokenSource resolves the push token of an account, empty when none is registered
type TokenSource interface {
	PushToken(ctx context.Context, accountID uuid.UUID) (string, error)
}

// MarkerStore records which notifications were already sent
type MarkerStore interface {
	// Claim inserts the marker and reports false when it already existed
	Claim(ctx context.Context, m Marker) (bool, error)
}
