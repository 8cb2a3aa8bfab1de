package httpapi_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/internal/platform/account"
	"github.com/kislikjeka/handygo/internal/platform/expiry"
	"github.com/kislikjeka/handygo/internal/platform/rating"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/money"
)

// MockBookingService is a mock implementation of handler.BookingServiceInterface
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, p booking.CreateParams) (*booking.Booking, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) Get(ctx context.Context, id, callerID uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) ListForUser(ctx context.Context, userID uuid.UUID, filters booking.Filters) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingService) ListForHandyman(ctx context.Context, handymanID uuid.UUID, filters booking.Filters) ([]*booking.Booking, error) {
	args := m.Called(ctx, handymanID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingService) BookedSlots(ctx context.Context, handymanID uuid.UUID, date string) ([]booking.Slot, error) {
	args := m.Called(ctx, handymanID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.Slot), args.Error(1)
}

func (m *MockBookingService) HandymanStats(ctx context.Context, handymanID uuid.UUID) (*booking.Stats, error) {
	args := m.Called(ctx, handymanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Stats), args.Error(1)
}

func (m *MockBookingService) Accept(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error) {
	return m.transition("Accept", ctx, id, handymanID)
}

func (m *MockBookingService) Reject(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error) {
	return m.transition("Reject", ctx, id, handymanID)
}

func (m *MockBookingService) Start(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error) {
	return m.transition("Start", ctx, id, handymanID)
}

func (m *MockBookingService) Complete(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error) {
	return m.transition("Complete", ctx, id, handymanID)
}

func (m *MockBookingService) transition(method string, ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error) {
	args := m.MethodCalled(method, ctx, id, handymanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, id, userID uuid.UUID, reason string) (*booking.Booking, error) {
	args := m.Called(ctx, id, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) Pay(ctx context.Context, p booking.PayParams) (*booking.PayResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.PayResult), args.Error(1)
}

// MockArrivalService is a mock implementation of handler.ArrivalServiceInterface
type MockArrivalService struct {
	mock.Mock
}

func (m *MockArrivalService) ReportLocation(ctx context.Context, handymanID uuid.UUID, p geo.Point) (*booking.ArrivalReport, error) {
	args := m.Called(ctx, handymanID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.ArrivalReport), args.Error(1)
}

// MockInvoiceService is a mock implementation of handler.InvoiceServiceInterface
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) result(args mock.Arguments) (*invoice.Invoice, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, bookingID, callerID uuid.UUID) (*invoice.Invoice, error) {
	return m.result(m.Called(ctx, bookingID, callerID))
}

func (m *MockInvoiceService) AddItem(ctx context.Context, bookingID, callerID uuid.UUID, in invoice.ItemInput, respectManualFare bool) (*invoice.Invoice, error) {
	return m.result(m.Called(ctx, bookingID, callerID, in, respectManualFare))
}

func (m *MockInvoiceService) UpdateItem(ctx context.Context, bookingID, callerID, itemID uuid.UUID, patch invoice.ItemPatch) (*invoice.Invoice, error) {
	return m.result(m.Called(ctx, bookingID, callerID, itemID, patch))
}

func (m *MockInvoiceService) DeleteItem(ctx context.Context, bookingID, callerID, itemID uuid.UUID) (*invoice.Invoice, error) {
	return m.result(m.Called(ctx, bookingID, callerID, itemID))
}

func (m *MockInvoiceService) SetManualFare(ctx context.Context, bookingID, callerID uuid.UUID, fare money.Amount, isManual bool) (*invoice.Invoice, error) {
	return m.result(m.Called(ctx, bookingID, callerID, fare, isManual))
}

func (m *MockInvoiceService) Replace(ctx context.Context, bookingID, callerID uuid.UUID, baseFare money.Amount, items []invoice.ItemInput) (*invoice.Invoice, error) {
	return m.result(m.Called(ctx, bookingID, callerID, baseFare, items))
}

// MockWalletService is a mock implementation of handler.WalletServiceInterface
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Balance(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(money.Amount), args.Error(1)
}

func (m *MockWalletService) History(ctx context.Context, accountID uuid.UUID, limit int) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}

func (m *MockWalletService) TopUp(ctx context.Context, p ledger.TopUpParams) (*ledger.Transaction, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockWalletService) Withdraw(ctx context.Context, p ledger.WithdrawParams) (*ledger.WithdrawResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.WithdrawResult), args.Error(1)
}

func (m *MockWalletService) Reconcile(ctx context.Context, accountID uuid.UUID) (*ledger.Reconciliation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Reconciliation), args.Error(1)
}

// MockFareService is a mock implementation of handler.FareServiceInterface
type MockFareService struct {
	mock.Mock
}

func (m *MockFareService) Fare(ctx context.Context) (money.Amount, error) {
	args := m.Called(ctx)
	return args.Get(0).(money.Amount), args.Error(1)
}

func (m *MockFareService) SetFare(ctx context.Context, fare money.Amount) error {
	args := m.Called(ctx, fare)
	return args.Error(0)
}

// MockScheduler is a mock implementation of handler.SchedulerInterface
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) RunChecks(ctx context.Context) (*expiry.RunReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expiry.RunReport), args.Error(1)
}

func (m *MockScheduler) Status() expiry.Status {
	args := m.Called()
	return args.Get(0).(expiry.Status)
}

// MockMigrator is a mock implementation of handler.MigratorInterface
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) MigrateLegacy(ctx context.Context) (*invoice.MigrationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.MigrationReport), args.Error(1)
}

// MockAccountService is a mock implementation of handler.AccountServiceInterface
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Create(ctx context.Context, p account.CreateParams) (*account.Account, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) RegisterPushToken(ctx context.Context, id uuid.UUID, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *MockAccountService) UpdateBankDetails(ctx context.Context, id uuid.UUID, bank ledger.BankDetails) error {
	return m.Called(ctx, id, bank).Error(0)
}

func (m *MockAccountService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return m.Called(ctx, id, available).Error(0)
}

// MockRatingService is a mock implementation of handler.RatingServiceInterface
type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) Submit(ctx context.Context, p rating.SubmitParams) (*rating.SubmitResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rating.SubmitResult), args.Error(1)
}

func (m *MockRatingService) ForBooking(ctx context.Context, bookingID uuid.UUID) (*rating.Rating, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rating.Rating), args.Error(1)
}

func (m *MockRatingService) ForHandyman(ctx context.Context, handymanID uuid.UUID, limit int) ([]*rating.Rating, *rating.Summary, error) {
	args := m.Called(ctx, handymanID, limit)
	if args.Get(1) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]*rating.Rating), args.Get(1).(*rating.Summary), args.Error(2)
}
