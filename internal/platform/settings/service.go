package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

// DefaultCacheTTL is how long a resolved fare stays in the cache
const DefaultCacheTTL = 5 * time.Minute

// Config holds fare resolution settings
type Config struct {
	DefaultFare money.Amount
	CacheTTL    time.Duration
}

// FareService resolves the global processing fee.
// Lookup order is cache, settings row, then the configured default.
type FareService struct {
	repo   Repository
	cache  FareCache
	config Config
	logger *logger.Logger
	now    func() time.Time
}

// NewFareService creates a fare service. cache may be nil.
func NewFareService(repo Repository, cache FareCache, config Config, log *logger.Logger) *FareService {
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	return &FareService{
		repo:   repo,
		cache:  cache,
		config: config,
		logger: log.WithField("service", "settings"),
		now:    time.Now,
	}
}

// Fare returns the current global fare
func (s *FareService) Fare(ctx context.Context) (money.Amount, error) {
	if s.cache != nil {
		fare, ok, err := s.cache.GetFare(ctx)
		if err != nil {
			s.logger.Warn("fare cache unavailable, reading database", "error", err)
		} else if ok {
			return fare, nil
		}
	}

	fare, err := s.repo.GetFare(ctx)
	if errors.Is(err, ErrFareNotSet) {
		return s.config.DefaultFare, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get fare: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetFare(ctx, fare, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache fare", "error", err)
		}
	}
	return fare, nil
}

// SetFare stores a new global fare and drops the cached value
func (s *FareService) SetFare(ctx context.Context, fare money.Amount) error {
	if !fare.IsPositive() {
		return ErrInvalidFare
	}

	if err := s.repo.SetFare(ctx, fare, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to set fare: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFare(ctx); err != nil {
			s.logger.Warn("failed to invalidate fare cache", "error", err)
		}
	}

	s.logger.Info("global fare updated", "fare", fare.String())
	return nil
}
