package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// Config holds booking service settings
type Config struct {
	// Location is the business timezone used to interpret service dates
	Location *time.Location
}

// Service is the booking state machine. Every transition is a
// compare-and-set on the stored status, and its wallet side effects commit
// in the same transaction.
type Service struct {
	repo   Repository
	wallet Wallet
	fares  FareSource
	tx     Transactor
	events EventPublisher
	config *Config
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new booking service
func NewService(config *Config, repo Repository, wallet Wallet, fares FareSource, tx Transactor, events EventPublisher, log *logger.Logger) *Service {
	if config == nil {
		config = &Config{}
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Service{
		repo:   repo,
		wallet: wallet,
		fares:  fares,
		tx:     tx,
		events: events,
		config: config,
		logger: log.WithField("service", "booking"),
		now:    time.Now,
	}
}

// SetClock replaces the time source, used by tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates a booking request, captures the processing fee and
// stores the booking as Pending
func (s *Service) Create(ctx context.Context, p CreateParams) (*Booking, error) {
	if p.UserID == uuid.Nil {
		return nil, ErrUserRequired
	}
	if p.HandymanID == uuid.Nil {
		return nil, ErrHandymanRequired
	}
	if p.UserID == p.HandymanID {
		return nil, ErrSelfBooking
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		return nil, ErrCategoryRequired
	}
	slot, err := ParseSlot(p.Slot)
	if err != nil {
		return nil, err
	}
	day, err := ParseDate(p.Date, s.config.Location)
	if err != nil {
		return nil, err
	}
	if p.BaseFare.IsNegative() {
		return nil, ErrInvalidFare
	}
	if p.Location != nil {
		if err := p.Location.Validate(); err != nil {
			return nil, ErrInvalidCoordinate
		}
	}

	fee := p.ProcessingFee
	if !fee.IsPositive() {
		fee, err = s.fares.Fare(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve processing fee: %w", err)
		}
	}

	start, end := slot.Window(day)
	now := s.now().UTC()
	b := &Booking{
		ID:             uuid.New(),
		UserID:         p.UserID,
		HandymanID:     p.HandymanID,
		Category:       category,
		Description:    strings.TrimSpace(p.Description),
		Status:         StatusPending,
		Slot:           slot,
		ServiceDate:    day.Format(DateLayout),
		ScheduledStart: start,
		ScheduledEnd:   end,
		Address:        strings.TrimSpace(p.Address),
		Location:       p.Location,
		ProcessingFee:  fee,
		BaseFare:       p.BaseFare,
		TotalFare:      p.BaseFare,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		taken, err := s.repo.SlotTaken(ctx, b.HandymanID, b.ServiceDate, b.Slot)
		if err != nil {
			return fmt.Errorf("failed to check slot: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}

		if _, err := s.wallet.ChargeBookingFee(ctx, b.UserID, b.ID, fee); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(logger.WithBookingID(ctx, b.ID)).Info("booking created",
		"user_id", b.UserID,
		"handyman_id", b.HandymanID,
		"slot", b.Slot,
		"scheduled_start", logger.LocalTime(b.ScheduledStart, s.config.Location),
		"processing_fee", fee.String(),
	)
	s.emit(ctx, NewEvent(EventStatusChanged, b, "", now))
	return b, nil
}

// Get returns a booking visible to one of its participants
func (s *Service) Get(ctx context.Context, id, callerID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(callerID) {
		return nil, ErrNotParticipant
	}
	return b, nil
}

// ListForUser returns the bookings a user requested, newest first
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, filters Filters) ([]*Booking, error) {
	return s.repo.ListByUser(ctx, userID, filters)
}

// ListForHandyman returns the jobs assigned to a handyman, newest first
func (s *Service) ListForHandyman(ctx context.Context, handymanID uuid.UUID, filters Filters) ([]*Booking, error) {
	return s.repo.ListByHandyman(ctx, handymanID, filters)
}

// ListPending returns every booking still waiting for a handyman response
func (s *Service) ListPending(ctx context.Context) ([]*Booking, error) {
	return s.repo.ListPending(ctx)
}

// BookedSlots returns the slots a handyman holds on a date
func (s *Service) BookedSlots(ctx context.Context, handymanID uuid.UUID, date string) ([]Slot, error) {
	day, err := ParseDate(date, s.config.Location)
	if err != nil {
		return nil, err
	}
	return s.repo.BookedSlots(ctx, handymanID, day.Format(DateLayout))
}

// HandymanStats summarises a handyman's jobs and earnings
func (s *Service) HandymanStats(ctx context.Context, handymanID uuid.UUID) (*Stats, error) {
	return s.repo.Stats(ctx, handymanID)
}

// Accept moves a Pending booking to Accepted
func (s *Service) Accept(ctx context.Context, id, handymanID uuid.UUID) (*Booking, error) {
	return s.handymanTransition(ctx, id, handymanID, StatusAccepted)
}

// rejectedReason describes the auto-refund of a rejected booking
const rejectedReason = "Rejected by handyman"

// Reject moves a Pending booking to Rejected and auto-refunds the captured fee.
func (s *Service) Reject(ctx context.Context, id, handymanID uuid.UUID) (*Booking, error) {
	return s.handymanTransition(ctx, id, handymanID, StatusRejected)
}

// Start moves an Accepted booking to In-Progress
func (s *Service) Start(ctx context.Context, id, handymanID uuid.UUID) (*Booking, error) {
	return s.handymanTransition(ctx, id, handymanID, StatusInProgress)
}

// Complete moves an In-Progress booking to Completed-Unpaid. The current
// total fare becomes the payable amount.
func (s *Service) Complete(ctx context.Context, id, handymanID uuid.UUID) (*Booking, error) {
	return s.handymanTransition(ctx, id, handymanID, StatusCompletedUnpaid)
}

func (s *Service) handymanTransition(ctx context.Context, id, handymanID uuid.UUID, to Status) (*Booking, error) {
	var out *Booking
	var previous Status
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !b.IsAssigned(handymanID) {
			return ErrNotAssigned
		}
		previous = b.Status

		out, err = s.transition(ctx, b, Transition{BookingID: id, To: to})
		if err != nil || to != StatusRejected {
			return err
		}

		// A rejected booking returns the fee in the same transaction.
		_, err = s.wallet.Refund(ctx, ledger.RefundParams{
			BookingID:   b.ID,
			AccountID:   b.UserID,
			Type:        ledger.TxTypeAutoRefund,
			RecordedFee: b.ProcessingFee,
			Reason:      rejectedReason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(logger.WithBookingID(ctx, id)).Info("booking status changed",
		"from", previous, "to", out.Status)
	s.emit(ctx, NewEvent(EventStatusChanged, out, previous, out.UpdatedAt))
	return out, nil
}

// Cancel is the owner's cancellation. It refunds the captured fee in the
// same transaction as the status change. Cancelling a Rejected booking whose
// fee was already returned only closes it.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID, reason string) (*Booking, error) {
	var out *Booking
	var previous Status
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !b.IsOwner(userID) {
			return ErrNotOwner
		}
		previous = b.Status

		if reason == "" {
			reason = "Cancelled by user"
		}
		out, err = s.transition(ctx, b, Transition{BookingID: id, To: StatusCancelled, Reason: reason})
		if err != nil {
			return err
		}

		_, err = s.wallet.Refund(ctx, ledger.RefundParams{
			BookingID:   b.ID,
			AccountID:   b.UserID,
			Type:        ledger.TxTypeRefund,
			RecordedFee: b.ProcessingFee,
			Reason:      reason,
		})
		if errors.Is(err, ledger.ErrAlreadyRefunded) && previous == StatusRejected {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(logger.WithBookingID(ctx, id)).Info("booking cancelled", "from", previous)
	s.emit(ctx, NewEvent(EventStatusChanged, out, previous, out.UpdatedAt))
	return out, nil
}

// Expire is the scheduler's timeout of a Pending booking. It auto-refunds the
// captured fee in the same transaction. A booking that already left Pending
// returns an InvalidTransition error and is left untouched.
func (s *Service) Expire(ctx context.Context, id uuid.UUID, reason ExpiryReason) (*Booking, error) {
	if !reason.IsValid() {
		return nil, ErrInvalidExpiry
	}

	var out *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.compareAndSet(ctx, Transition{
			BookingID:    id,
			From:         StatusPending,
			To:           StatusExpired,
			At:           s.now().UTC(),
			Reason:       reason.Describe(),
			ExpiryReason: reason,
		})
		if err != nil {
			return err
		}

		_, err = s.wallet.Refund(ctx, ledger.RefundParams{
			BookingID:   out.ID,
			AccountID:   out.UserID,
			Type:        ledger.TxTypeAutoRefund,
			RecordedFee: out.ProcessingFee,
			Reason:      reason.Describe(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(logger.WithBookingID(ctx, id)).Info("booking expired", "reason", reason)
	s.emit(ctx, NewEvent(EventStatusChanged, out, StatusPending, out.UpdatedAt))
	return out, nil
}

// Pay settles a Completed-Unpaid booking: the user is debited, the handyman
// credited, a payment is recorded and the booking becomes Completed-Paid,
// all in one transaction.
func (s *Service) Pay(ctx context.Context, p PayParams) (*PayResult, error) {
	if p.Amount.IsNegative() {
		return nil, ErrInvalidPayment
	}

	var out PayResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The row lock holds off invoice edits, so the fare charged is the fare stored
		b, err := s.repo.GetByIDForUpdate(ctx, p.BookingID)
		if err != nil {
			return err
		}
		if !b.IsOwner(p.UserID) {
			return ErrNotOwner
		}

		amount := p.Amount
		if amount == 0 {
			amount = b.TotalFare
		}
		if !amount.IsPositive() {
			return ErrInvalidPayment
		}
		paymentID := p.PaymentID
		if paymentID == uuid.Nil {
			paymentID = uuid.New()
		}

		paid, err := s.transition(ctx, b, Transition{BookingID: b.ID, To: StatusCompletedPaid})
		if err != nil {
			return err
		}

		if _, err := s.wallet.SettlePayment(ctx, ledger.PaymentParams{
			BookingID:  b.ID,
			UserID:     b.UserID,
			HandymanID: b.HandymanID,
			Amount:     amount,
			PaymentID:  paymentID,
		}); err != nil {
			return err
		}

		payment := &Payment{
			ID:         paymentID,
			BookingID:  b.ID,
			UserID:     b.UserID,
			HandymanID: b.HandymanID,
			Amount:     amount,
			Status:     "completed",
			CreatedAt:  paid.UpdatedAt,
		}
		if err := s.repo.CreatePayment(ctx, payment); err != nil {
			return err
		}

		out = PayResult{Booking: paid, Payment: payment}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(logger.WithBookingID(ctx, p.BookingID)).Info("booking paid",
		"payment_id", out.Payment.ID, "amount", out.Payment.Amount.String())

	event := NewEvent(EventStatusChanged, out.Booking, StatusCompletedUnpaid, out.Booking.UpdatedAt)
	event.Amount = out.Payment.Amount
	s.emit(ctx, event)
	return &out, nil
}

// transition checks the state machine against the observed booking and
// applies the change only if the stored status is still the observed one
func (s *Service) transition(ctx context.Context, b *Booking, t Transition) (*Booking, error) {
	if !b.Status.CanTransitionTo(t.To) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, b.Status, t.To)
	}
	t.From = b.Status
	if t.At.IsZero() {
		t.At = s.now().UTC()
	}
	return s.compareAndSet(ctx, t)
}

func (s *Service) compareAndSet(ctx context.Context, t Transition) (*Booking, error) {
	b, err := s.repo.Transition(ctx, t)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrStatusConflict) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	current, getErr := s.repo.GetByID(ctx, t.BookingID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, t.To)
}

// emit publishes an event and only logs a failure
func (s *Service) emit(ctx context.Context, e Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.WithContext(ctx).Warn("failed to publish booking event",
			"booking_id", e.BookingID, "kind", e.Kind, "status", e.Status, "error", err)
	}
}
