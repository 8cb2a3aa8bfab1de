package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

const (
	// KeyPrefix is the prefix for every key this package writes
	KeyPrefix = "handygo:"

	fareKey = KeyPrefix + "settings:booking_fare"
)

// Cache is a Redis-backed cache for platform settings
type Cache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewCache creates a new settings cache
func NewCache(client *redis.Client, log *logger.Logger) *Cache {
	return &Cache{
		client: client,
		logger: log.WithField("component", "cache"),
	}
}

// cachedFare is the stored form of the fare
type cachedFare struct {
	Fare      string    `json:"fare"` // decimal ringgit, e.g. "15.00"
	UpdatedAt time.Time `json:"updated_at"`
}

// GetFare retrieves the cached global fare
func (c *Cache) GetFare(ctx context.Context) (money.Amount, bool, error) {
	val, err := c.client.Get(ctx, fareKey).Result()
	if err == redis.Nil {
		c.logger.Debug("cache miss", "key", fareKey)
		return 0, false, nil
	}
	if err != nil {
		c.logger.Error("cache error", "operation", "get", "key", fareKey, "error", err)
		return 0, false, fmt.Errorf("failed to get cached fare: %w", err)
	}

	var cached cachedFare
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal cached fare: %w", err)
	}

	fare, err := money.Parse(cached.Fare)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse cached fare: %w", err)
	}

	c.logger.Debug("cache hit", "key", fareKey)
	return fare, true, nil
}

// SetFare stores the global fare for ttl
func (c *Cache) SetFare(ctx context.Context, fare money.Amount, ttl time.Duration) error {
	data, err := json.Marshal(cachedFare{
		Fare:      fare.String(),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal fare: %w", err)
	}

	if err := c.client.Set(ctx, fareKey, data, ttl).Err(); err != nil {
		c.logger.Error("cache error", "operation", "set", "key", fareKey, "error", err)
		return fmt.Errorf("failed to set cached fare: %w", err)
	}
	return nil
}

// InvalidateFare drops the cached fare
func (c *Cache) InvalidateFare(ctx context.Context) error {
	if err := c.client.Del(ctx, fareKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached fare: %w", err)
	}
	return nil
}
