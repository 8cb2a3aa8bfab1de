package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttlePrefix = KeyPrefix + "throttle:"

// Throttle grants one action per key per interval across every API instance.
// The first caller sets the key with SET NX and the key expiry ends the window.
type Throttle struct {
	client   *redis.Client
	interval time.Duration
}

// NewThrottle creates a new shared throttle
func NewThrottle(client *redis.Client, interval time.Duration) *Throttle {
	return &Throttle{client: client, interval: interval}
}

// Allow reports whether key may act now
func (t *Throttle) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := t.client.SetNX(ctx, throttlePrefix+key, time.Now().UTC().Unix(), t.interval).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check throttle: %w", err)
	}
	return ok, nil
}
