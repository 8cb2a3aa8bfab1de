package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/pkg/logger"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
)

// Service records customer ratings of handymen and keeps each handyman's
// average current
type Service struct {
	repo     Repository
	bookings BookingLocker
	tx       Transactor
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a new rating service
func NewService(repo Repository, bookings BookingLocker, tx Transactor, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		tx:       tx,
		logger:   log.WithField("service", "rating"),
		now:      time.Now,
	}
}

// Submit rates the handyman of a paid booking. A second submission for the
// same booking replaces the first score in the average without adding to
// the count.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (*SubmitResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var out SubmitResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(ctx, p.BookingID)
		if err != nil {
			return err
		}
		if !b.IsOwner(p.UserID) {
			return ErrNotOwner
		}
		if b.Status != booking.StatusCompletedPaid {
			return ErrNotRateable
		}

		now := s.now().UTC()
		r := &Rating{
			BookingID:  b.ID,
			HandymanID: b.HandymanID,
			UserID:     p.UserID,
			UserName:   p.userName(),
			Score:      p.Score,
			Review:     strings.TrimSpace(p.Review),
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		previous := 0
		existing, err := s.repo.GetByBooking(ctx, b.ID)
		switch {
		case err == nil:
			previous = existing.Score
			r.CreatedAt = existing.CreatedAt
		case !errors.Is(err, ErrRatingNotFound):
			return err
		}

		summary, err := s.repo.LockSummary(ctx, b.HandymanID)
		if err != nil {
			return err
		}
		next := summary.Apply(previous, p.Score)

		if err := s.repo.Upsert(ctx, r); err != nil {
			return err
		}
		if err := s.repo.SaveSummary(ctx, &next); err != nil {
			return err
		}

		out = SubmitResult{Rating: r, Summary: &next, Updated: previous != 0}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(logger.WithBookingID(ctx, p.BookingID)).Info("rating submitted",
		"handyman_id", out.Rating.HandymanID,
		"score", out.Rating.Score,
		"updated", out.Updated,
		"average", out.Summary.Average.StringFixed(2))
	return &out, nil
}

// ForBooking returns the rating left on a booking
func (s *Service) ForBooking(ctx context.Context, bookingID uuid.UUID) (*Rating, error) {
	return s.repo.GetByBooking(ctx, bookingID)
}

// ForHandyman returns the newest ratings of a handyman with the aggregate.
// limit defaults to 10 and is capped at 50.
func (s *Service) ForHandyman(ctx context.Context, handymanID uuid.UUID, limit int) ([]*Rating, *Summary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	summary, err := s.repo.GetSummary(ctx, handymanID)
	if err != nil {
		return nil, nil, err
	}
	ratings, err := s.repo.ListByHandyman(ctx, handymanID, limit)
	if err != nil {
		return nil, nil, err
	}
	return ratings, summary, nil
}
