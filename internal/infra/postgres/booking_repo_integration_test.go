//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/internal/platform/notify"
	apperr "github.com/kislikjeka/handygo/internal/shared/errors"
	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

func bookingParams(userID, handymanID uuid.UUID, slot string) booking.CreateParams {
	return booking.CreateParams{
		UserID:     userID,
		HandymanID: handymanID,
		Category:   "Plumbing",
		Slot:       slot,
		Date:       time.Now().UTC().AddDate(0, 0, 3).Format(booking.DateLayout),
		Address:    "12 Jalan Ampang",
		BaseFare:   money.RM(60),
	}
}

func TestBookingRepository_CancelRefundsFee(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 2"))
	require.NoError(t, err)
	assert.Equal(t, money.RM(15), b.ProcessingFee)

	balance, err := s.ledgers.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(85), balance)

	cancelled, err := s.booking.Cancel(ctx, b.ID, userID, "")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	balance, err = s.ledgers.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(100), balance)

	rec, err := s.wallet.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced())
}

func TestBookingRepository_RejectRefundsFeeOnce(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 1"))
	require.NoError(t, err)

	rejected, err := s.booking.Reject(ctx, b.ID, handymanID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusRejected, rejected.Status)

	balance, err := s.ledgers.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(100), balance)

	// Closing the rejected booking afterwards does not pay the fee back twice
	cancelled, err := s.booking.Cancel(ctx, b.ID, userID, "")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, cancelled.Status)

	balance, err = s.ledgers.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(100), balance)

	rec, err := s.wallet.Reconcile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced())
}

func TestBookingRepository_CreateWithoutFundsLeavesNothing(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(10))

	_, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 1"))
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	list, err := s.bookings.ListByUser(ctx, userID, booking.Filters{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBookingRepository_SlotIndex(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	first, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 3"))
	require.NoError(t, err)

	// Bypass the service check to hit the partial unique index directly
	dup := *first
	dup.ID = uuid.New()
	assert.ErrorIs(t, s.bookings.Create(ctx, &dup), booking.ErrSlotTaken)

	slots, err := s.bookings.BookedSlots(ctx, handymanID, first.ServiceDate)
	require.NoError(t, err)
	assert.Equal(t, []booking.Slot{booking.Slot3}, slots)

	// A terminal booking frees the slot
	_, err = s.booking.Reject(ctx, first.ID, handymanID)
	require.NoError(t, err)

	taken, err := s.bookings.SlotTaken(ctx, handymanID, first.ServiceDate, booking.Slot3)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestBookingRepository_TransitionCompareAndSet(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 1"))
	require.NoError(t, err)

	_, err = s.bookings.Transition(ctx, booking.Transition{
		BookingID: b.ID,
		From:      booking.StatusAccepted,
		To:        booking.StatusInProgress,
		At:        time.Now().UTC(),
	})
	assert.ErrorIs(t, err, booking.ErrStatusConflict)

	got, err := s.bookings.Transition(ctx, booking.Transition{
		BookingID: b.ID,
		From:      booking.StatusPending,
		To:        booking.StatusAccepted,
		At:        time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusAccepted, got.Status)

	stored, err := s.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusAccepted, stored.Status)
	assert.Equal(t, b.ServiceDate, stored.ServiceDate)
}

func TestBookingRepository_ConcurrentCancelAndExpireRefundOnce(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 1"))
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	record := func(err error) {
		switch {
		case err == nil:
			succeeded.Add(1)
		case apperr.HasCode(err, apperr.ErrCodeInvalidTransition), errors.Is(err, ledger.ErrAlreadyRefunded):
			rejected.Add(1)
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.booking.Cancel(ctx, b.ID, userID, "changed plans")
		record(err)
	}()
	go func() {
		defer wg.Done()
		_, err := s.booking.Expire(ctx, b.ID, booking.ExpiryNoResponse)
		record(err)
	}()
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(1), rejected.Load())

	balance, err := s.ledgers.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(100), balance)

	var refunds int
	err = testDB.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM wallet_transactions WHERE booking_id = $1 AND type IN ('refund', 'auto-refund')`,
		b.ID).Scan(&refunds)
	require.NoError(t, err)
	assert.Equal(t, 1, refunds)
}

func TestBookingRepository_PayAndStats(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 2"))
	require.NoError(t, err)
	_, err = s.booking.Accept(ctx, b.ID, handymanID)
	require.NoError(t, err)
	_, err = s.booking.Start(ctx, b.ID, handymanID)
	require.NoError(t, err)
	_, err = s.booking.Complete(ctx, b.ID, handymanID)
	require.NoError(t, err)

	res, err := s.booking.Pay(ctx, booking.PayParams{BookingID: b.ID, UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompletedPaid, res.Booking.Status)
	assert.Equal(t, money.RM(60), res.Payment.Amount)

	_, err = s.booking.Pay(ctx, booking.PayParams{BookingID: b.ID, UserID: userID})
	assert.Error(t, err)

	userBalance, err := s.ledgers.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(25), userBalance)

	stats, err := s.bookings.Stats(ctx, handymanID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedJobs)
	assert.Equal(t, 0, stats.ActiveBookings)
	assert.Equal(t, money.RM(60), stats.TotalRevenue)

	rec, err := s.wallet.Reconcile(ctx, handymanID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced())
}

func TestBookingRepository_ArrivalFlag(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 1"))
	require.NoError(t, err)
	_, err = s.booking.Accept(ctx, b.ID, handymanID)
	require.NoError(t, err)

	candidates, err := s.bookings.ListArrivalCandidates(ctx, handymanID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	first, err := s.bookings.MarkArrived(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := s.bookings.MarkArrived(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestInvoiceRepository_ConcurrentAddItems(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 1"))
	require.NoError(t, err)
	_, err = s.booking.Accept(ctx, b.ID, handymanID)
	require.NoError(t, err)

	svc := invoice.NewService(s.invoices, s.bookings, s.tx, logger.Discard())

	const writers = 5
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, b.ID, handymanID, invoice.ItemInput{Name: "PVC pipe", Quantity: 2, UnitPrice: money.FromSen(450)}, false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	inv, err := svc.Get(ctx, b.ID, userID)
	require.NoError(t, err)
	require.Len(t, inv.Items, writers)
	assert.Equal(t, money.RM(60)+money.FromSen(writers*900), inv.Fare)

	stored, err := s.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Fare, stored.TotalFare)
}

func TestInvoiceRepository_EditsRacingPayment(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(300))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 3"))
	require.NoError(t, err)
	_, err = s.booking.Accept(ctx, b.ID, handymanID)
	require.NoError(t, err)
	_, err = s.booking.Start(ctx, b.ID, handymanID)
	require.NoError(t, err)
	_, err = s.booking.Complete(ctx, b.ID, handymanID)
	require.NoError(t, err)

	svc := invoice.NewService(s.invoices, s.bookings, s.tx, logger.Discard())

	const writers = 8
	var (
		wg      sync.WaitGroup
		added   atomic.Int32
		closed  atomic.Int32
		payment *booking.PayResult
	)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.AddItem(ctx, b.ID, handymanID, invoice.ItemInput{Name: "Sealant", Quantity: 1, UnitPrice: money.RM(5)}, false)
			switch {
			case err == nil:
				added.Add(1)
			case errors.Is(err, invoice.ErrInvoiceClosed):
				closed.Add(1)
			default:
				t.Errorf("unexpected add error: %v", err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		res, err := s.booking.Pay(ctx, booking.PayParams{BookingID: b.ID, UserID: userID})
		assert.NoError(t, err)
		payment = res
	}()
	close(start)
	wg.Wait()

	require.NotNil(t, payment)
	assert.Equal(t, int32(writers), added.Load()+closed.Load())

	stored, err := s.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompletedPaid, stored.Status)
	// Every line committed before the payment is charged, none after it
	assert.Equal(t, stored.TotalFare, payment.Payment.Amount)
	assert.Equal(t, money.RM(60)+money.FromSen(500*int64(added.Load())), stored.TotalFare)

	inv, err := svc.Get(ctx, b.ID, userID)
	require.NoError(t, err)
	assert.Len(t, inv.Items, int(added.Load()))
}

func TestBookingRepository_GetByIDForUpdate(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(100))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 1"))
	require.NoError(t, err)

	// A status change waits for the lock holder to commit
	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.bookings.GetByIDForUpdate(ctx, b.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	accepted := make(chan error, 1)
	go func() {
		_, err := s.booking.Accept(ctx, b.ID, handymanID)
		accepted <- err
	}()

	select {
	case err := <-accepted:
		t.Fatalf("accept finished while the row was locked: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-accepted)

	_, err = s.bookings.GetByIDForUpdate(ctx, uuid.New())
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestMarkerRepository_Claim(t *testing.T) {
	s, ctx := setupTest(t)

	m := notify.Marker{
		BookingID: uuid.New(),
		Status:    "Accepted",
		Audience:  notify.AudienceUser,
		SentAt:    time.Now().UTC(),
	}

	claimed, err := s.markers.Claim(ctx, m)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = s.markers.Claim(ctx, m)
	require.NoError(t, err)
	assert.False(t, claimed)

	m.Audience = notify.AudienceHandyman
	claimed, err = s.markers.Claim(ctx, m)
	require.NoError(t, err)
	assert.True(t, claimed)
}
