package invoice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

// Service aggregates a booking's payable fare from a base fare and items.
// Every change runs in one transaction with the invoice row locked, and the
// result is mirrored onto the booking.
type Service struct {
	repo     Repository
	bookings BookingStore
	tx       Transactor
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a new invoice service
func NewService(repo Repository, bookings BookingStore, tx Transactor, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		tx:       tx,
		logger:   log.WithField("service", "invoice"),
		now:      time.Now,
	}
}

// mutation changes the locked invoice. recompute reports whether the fare
// should be rebuilt from base fare and items afterwards.
type mutation func(ctx context.Context, inv *Invoice) (recompute bool, err error)

// Get returns the invoice of a booking, or an empty one derived from the
// booking when nothing was written yet
func (s *Service) Get(ctx context.Context, bookingID, callerID uuid.UUID) (*Invoice, error) {
	bf, err := s.bookings.GetBookingFare(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if callerID != bf.UserID && callerID != bf.HandymanID {
		return nil, ErrNotParticipant
	}

	inv, err := s.repo.Get(ctx, bookingID)
	if errors.Is(err, ErrInvoiceNotFound) {
		return &Invoice{
			BookingID:  bookingID,
			BaseFare:   bf.BaseFare,
			Fare:       bf.BaseFare,
			ManualFare: bf.ManualFare,
			Items:      []Item{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AddItem appends a line. With respectManualFare the fare is pinned as it
// stands and the new line does not change it.
func (s *Service) AddItem(ctx context.Context, bookingID, callerID uuid.UUID, in ItemInput, respectManualFare bool) (*Invoice, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, bookingID, callerID, func(ctx context.Context, inv *Invoice) (bool, error) {
		now := s.now().UTC()
		item := Item{
			ID:        uuid.New(),
			BookingID: bookingID,
			Name:      strings.TrimSpace(in.Name),
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Position:  nextPosition(inv.Items),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := item.recompute(); err != nil {
			return false, err
		}

		if err := s.repo.AddItem(ctx, &item); err != nil {
			return false, err
		}
		inv.Items = append(inv.Items, item)

		if respectManualFare {
			inv.ManualFare = true
		}
		return true, nil
	})
}

// UpdateItem applies a partial change to one line
func (s *Service) UpdateItem(ctx context.Context, bookingID, callerID, itemID uuid.UUID, patch ItemPatch) (*Invoice, error) {
	return s.mutate(ctx, bookingID, callerID, func(ctx context.Context, inv *Invoice) (bool, error) {
		idx, ok := inv.findItem(itemID)
		if !ok {
			return false, ErrItemNotFound
		}

		item := inv.Items[idx]
		if patch.Name != nil {
			item.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.UnitPrice != nil {
			item.UnitPrice = *patch.UnitPrice
		}
		if err := (ItemInput{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice}).Validate(); err != nil {
			return false, err
		}
		if err := item.recompute(); err != nil {
			return false, err
		}
		item.UpdatedAt = s.now().UTC()

		if err := s.repo.UpdateItem(ctx, &item); err != nil {
			return false, err
		}
		inv.Items[idx] = item
		return true, nil
	})
}

// DeleteItem removes one line. A pinned fare is preserved exactly.
func (s *Service) DeleteItem(ctx context.Context, bookingID, callerID, itemID uuid.UUID) (*Invoice, error) {
	return s.mutate(ctx, bookingID, callerID, func(ctx context.Context, inv *Invoice) (bool, error) {
		idx, ok := inv.findItem(itemID)
		if !ok {
			return false, ErrItemNotFound
		}
		if err := s.repo.DeleteItem(ctx, bookingID, itemID); err != nil {
			return false, err
		}
		inv.Items = append(inv.Items[:idx], inv.Items[idx+1:]...)
		return true, nil
	})
}

// SetManualFare force-sets the fare. Once pinned, the pin stays: isManual
// false on a pinned invoice only changes the amount.
func (s *Service) SetManualFare(ctx context.Context, bookingID, callerID uuid.UUID, fare money.Amount, isManual bool) (*Invoice, error) {
	if fare.IsNegative() || !fare.InRange() {
		return nil, ErrInvalidFare
	}

	return s.mutate(ctx, bookingID, callerID, func(_ context.Context, inv *Invoice) (bool, error) {
		inv.Fare = fare
		inv.ManualFare = inv.ManualFare || isManual
		return false, nil
	})
}

// Replace overwrites the base fare and every line
func (s *Service) Replace(ctx context.Context, bookingID, callerID uuid.UUID, baseFare money.Amount, items []ItemInput) (*Invoice, error) {
	if baseFare.IsNegative() || !baseFare.InRange() {
		return nil, ErrInvalidFare
	}
	for _, in := range items {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, bookingID, callerID, func(ctx context.Context, inv *Invoice) (bool, error) {
		now := s.now().UTC()
		lines := make([]Item, 0, len(items))
		for i, in := range items {
			item := Item{
				ID:        uuid.New(),
				BookingID: bookingID,
				Name:      strings.TrimSpace(in.Name),
				Quantity:  in.Quantity,
				UnitPrice: in.UnitPrice,
				Position:  i,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := item.recompute(); err != nil {
				return false, err
			}
			lines = append(lines, item)
		}

		if err := s.repo.ReplaceItems(ctx, bookingID, lines); err != nil {
			return false, err
		}
		inv.BaseFare = baseFare
		inv.Items = lines
		return true, nil
	})
}

// mutate locks the booking, loads or lazily creates the invoice under lock,
// applies fn and mirrors the result onto the booking. A nil callerID is a system change and
// skips the handyman and closed-booking checks.
func (s *Service) mutate(ctx context.Context, bookingID, callerID uuid.UUID, fn mutation) (*Invoice, error) {
	var out *Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		bf, err := s.bookings.LockBookingFare(ctx, bookingID)
		if err != nil {
			return err
		}
		if callerID != uuid.Nil {
			if callerID != bf.HandymanID {
				return ErrNotAssigned
			}
			if closed(bf.Status) {
				return ErrInvoiceClosed
			}
		}

		inv, err := s.load(ctx, bf)
		if err != nil {
			return err
		}

		recompute, err := fn(ctx, inv)
		if err != nil {
			return err
		}
		if recompute {
			if err := inv.Recompute(); err != nil {
				return err
			}
		}
		inv.UpdatedAt = s.now().UTC()

		if err := s.save(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(logger.WithBookingID(ctx, bookingID)).Debug("invoice updated",
		"fare", out.Fare.String(), "manual", out.ManualFare, "items", len(out.Items))
	return out, nil
}

func (s *Service) load(ctx context.Context, bf *BookingFare) (*Invoice, error) {
	now := s.now().UTC()
	return s.repo.GetOrCreateForUpdate(ctx, &Invoice{
		BookingID:  bf.BookingID,
		BaseFare:   bf.BaseFare,
		Fare:       bf.TotalFare,
		ManualFare: bf.ManualFare,
		Items:      []Item{},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *Service) save(ctx context.Context, inv *Invoice) error {
	if err := s.repo.Update(ctx, inv); err != nil {
		return err
	}
	return s.bookings.ApplyFare(ctx, FareUpdate{
		BookingID: inv.BookingID,
		BaseFare:  inv.BaseFare,
		TotalFare: inv.Fare,
		Manual:    inv.ManualFare,
	})
}

// closed reports whether the booking no longer accepts fare changes
func closed(status booking.Status) bool {
	return status == booking.StatusCompletedPaid || status == booking.StatusCancelled || status == booking.StatusExpired
}

func nextPosition(items []Item) int {
	next := 0
	for _, item := range items {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}
