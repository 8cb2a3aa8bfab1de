package booking_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/money"
)

// =============================================================================
// Mock Repository
// =============================================================================

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, b *booking.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockRepository) Transition(ctx context.Context, t booking.Transition) (*booking.Booking, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uuid.UUID, filters booking.Filters) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, filters)
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockRepository) ListByHandyman(ctx context.Context, handymanID uuid.UUID, filters booking.Filters) ([]*booking.Booking, error) {
	args := m.Called(ctx, handymanID, filters)
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockRepository) ListPending(ctx context.Context) ([]*booking.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockRepository) BookedSlots(ctx context.Context, handymanID uuid.UUID, serviceDate string) ([]booking.Slot, error) {
	args := m.Called(ctx, handymanID, serviceDate)
	return args.Get(0).([]booking.Slot), args.Error(1)
}

func (m *MockRepository) SlotTaken(ctx context.Context, handymanID uuid.UUID, serviceDate string, slot booking.Slot) (bool, error) {
	args := m.Called(ctx, handymanID, serviceDate, slot)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListArrivalCandidates(ctx context.Context, handymanID uuid.UUID) ([]*booking.Booking, error) {
	args := m.Called(ctx, handymanID)
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockRepository) MarkArrived(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CreatePayment(ctx context.Context, p *booking.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) Stats(ctx context.Context, handymanID uuid.UUID) (*booking.Stats, error) {
	args := m.Called(ctx, handymanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Stats), args.Error(1)
}

var _ booking.Repository = (*MockRepository)(nil)

// =============================================================================
// Mock Wallet
// =============================================================================

type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) ChargeBookingFee(ctx context.Context, accountID, bookingID uuid.UUID, fee money.Amount) (*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, bookingID, fee)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockWallet) Refund(ctx context.Context, p ledger.RefundParams) (*ledger.Transaction, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockWallet) SettlePayment(ctx context.Context, p ledger.PaymentParams) (*ledger.Settlement, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Settlement), args.Error(1)
}

var _ booking.Wallet = (*MockWallet)(nil)

// =============================================================================
// Small collaborators
// =============================================================================

type MockFareSource struct {
	mock.Mock
}

func (m *MockFareSource) Fare(ctx context.Context) (money.Amount, error) {
	args := m.Called(ctx)
	return args.Get(0).(money.Amount), args.Error(1)
}

type MockLocationStore struct {
	mock.Mock
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, accountID uuid.UUID, p geo.Point) error {
	args := m.Called(ctx, accountID, p)
	return args.Error(0)
}

type MockThrottle struct {
	mock.Mock
}

func (m *MockThrottle) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// passthroughTx runs fn directly; atomicity is covered by the postgres tests
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []booking.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e booking.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) published() []booking.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]booking.Event(nil), p.events...)
}
