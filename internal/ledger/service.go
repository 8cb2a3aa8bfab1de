package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

// Config holds wallet ledger limits
type Config struct {
	// MinWithdrawal is the smallest payout a handyman may request
	MinWithdrawal money.Amount

	// DefaultHistoryLimit applies when a caller asks for no limit
	DefaultHistoryLimit int

	// MaxHistoryLimit caps a single history page
	MaxHistoryLimit int
}

// DefaultConfig returns the default ledger configuration
func DefaultConfig() *Config {
	return &Config{
		MinWithdrawal:       money.RM(10),
		DefaultHistoryLimit: 50,
		MaxHistoryLimit:     200,
	}
}

// Service is the wallet ledger: an append-only transaction log plus a cached
// balance per account. Every mutation writes the balance delta and the
// transaction in the same database transaction.
type Service struct {
	repo   Repository
	tx     Transactor
	fares  FareSource
	config *Config
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new ledger service
func NewService(repo Repository, tx Transactor, fares FareSource, config *Config, log *logger.Logger) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.DefaultHistoryLimit <= 0 {
		config.DefaultHistoryLimit = 50
	}
	if config.MaxHistoryLimit < config.DefaultHistoryLimit {
		config.MaxHistoryLimit = config.DefaultHistoryLimit
	}

	return &Service{
		repo:   repo,
		tx:     tx,
		fares:  fares,
		config: config,
		logger: log.WithField("service", "ledger"),
		now:    time.Now,
	}
}

// Balance returns the cached balance of an account
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	return s.repo.GetBalance(ctx, accountID)
}

// Debit removes funds from an account, failing when the balance is short
func (s *Service) Debit(ctx context.Context, e Entry) (*Transaction, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var out *Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.apply(ctx, e, e.Amount.Neg())
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Credit adds funds to an account
func (s *Service) Credit(ctx context.Context, e Entry) (*Transaction, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var out *Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.apply(ctx, e, e.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChargeBookingFee captures the processing fee of a new booking
func (s *Service) ChargeBookingFee(ctx context.Context, accountID, bookingID uuid.UUID, fee money.Amount) (*Transaction, error) {
	return s.Debit(ctx, Entry{
		AccountID:   accountID,
		Amount:      fee,
		Type:        TxTypeBookingFee,
		BookingID:   &bookingID,
		Description: "Booking processing fee",
	})
}

// Refund returns the processing fee captured for a booking.
// The amount comes from the original booking-fee transaction, then the fee
// recorded on the booking, then the current global fare. A booking is
// refunded at most once per account.
func (s *Service) Refund(ctx context.Context, p RefundParams) (*Transaction, error) {
	if p.Type == "" {
		p.Type = TxTypeRefund
	}
	if !p.Type.IsRefund() {
		return nil, ErrInvalidTransactionType
	}

	var out *Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindBookingTransaction(ctx, p.BookingID, p.AccountID, TxTypeRefund, TxTypeAutoRefund)
		if err == nil && existing != nil {
			return ErrAlreadyRefunded
		}
		if err != nil && !errors.Is(err, ErrTransactionNotFound) {
			return fmt.Errorf("failed to check existing refund: %w", err)
		}

		amount, source, err := s.refundAmount(ctx, p)
		if err != nil {
			return err
		}

		description := "Refund for booking " + p.BookingID.String()
		if p.Reason != "" {
			description = description + ": " + p.Reason
		}

		out, err = s.apply(ctx, Entry{
			AccountID:   p.AccountID,
			Amount:      amount,
			Type:        p.Type,
			BookingID:   &p.BookingID,
			Description: description,
			Metadata:    map[string]string{"amount_source": source},
		}, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("booking fee refunded",
		"booking_id", p.BookingID,
		"account_id", p.AccountID,
		"type", p.Type,
		"amount", out.Amount.String(),
		"amount_source", out.Metadata["amount_source"],
	)
	return out, nil
}

// refundAmount resolves the refund through the three fallback tiers
func (s *Service) refundAmount(ctx context.Context, p RefundParams) (money.Amount, string, error) {
	fee, err := s.repo.FindBookingTransaction(ctx, p.BookingID, p.AccountID, TxTypeBookingFee)
	switch {
	case err == nil && fee != nil:
		return fee.Amount.Abs(), "transaction", nil
	case err != nil && !errors.Is(err, ErrTransactionNotFound):
		s.logger.WithContext(ctx).Warn("booking fee lookup failed, using fallback",
			"booking_id", p.BookingID, "error", err)
	}

	if p.RecordedFee.IsPositive() {
		return p.RecordedFee, "booking", nil
	}

	fare, err := s.fares.Fare(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("failed to resolve global fare: %w", err)
	}
	return fare, "global", nil
}

// SettlePayment moves a booking payment from the user to the handyman.
// Both transactions and both balance changes commit together.
func (s *Service) SettlePayment(ctx context.Context, p PaymentParams) (*Settlement, error) {
	if !p.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if p.UserID == uuid.Nil || p.HandymanID == uuid.Nil {
		return nil, ErrInvalidAccount
	}

	reference := ""
	if p.PaymentID != uuid.Nil {
		reference = p.PaymentID.String()
	}

	var out Settlement
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out.Payment, err = s.apply(ctx, Entry{
			AccountID:   p.UserID,
			Amount:      p.Amount,
			Type:        TxTypePayment,
			BookingID:   &p.BookingID,
			Reference:   reference,
			Description: "Payment for booking " + p.BookingID.String(),
		}, p.Amount.Neg())
		if err != nil {
			return fmt.Errorf("failed to debit user: %w", err)
		}

		out.Earnings, err = s.apply(ctx, Entry{
			AccountID:   p.HandymanID,
			Amount:      p.Amount,
			Type:        TxTypeEarnings,
			BookingID:   &p.BookingID,
			Reference:   reference,
			Description: "Earnings for booking " + p.BookingID.String(),
		}, p.Amount)
		if err != nil {
			return fmt.Errorf("failed to credit handyman: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Withdraw debits a handyman payout and records it as pending
func (s *Service) Withdraw(ctx context.Context, p WithdrawParams) (*WithdrawResult, error) {
	if !p.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if p.Amount < s.config.MinWithdrawal {
		return nil, fmt.Errorf("%w: minimum is RM %s", ErrBelowMinimum, s.config.MinWithdrawal)
	}

	bank, err := s.repo.GetBankDetails(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	if !bank.Complete() {
		return nil, ErrBankDetailsRequired
	}

	var out WithdrawResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		balance, err := s.repo.ApplyBalanceDelta(ctx, p.AccountID, p.Amount.Neg())
		if err != nil {
			return err
		}

		tx := &Transaction{
			ID:          uuid.New(),
			AccountID:   p.AccountID,
			Amount:      p.Amount.Neg(),
			Type:        TxTypeWithdrawal,
			Status:      TransactionStatusPending,
			Description: "Withdrawal to " + bank.BankName,
			Metadata: map[string]string{
				"bank_name":      bank.BankName,
				"account_number": bank.AccountNumber,
			},
			CreatedAt: s.now(),
		}
		if err := s.repo.InsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to record withdrawal: %w", err)
		}

		out = WithdrawResult{Transaction: tx, NewBalance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("withdrawal requested",
		"account_id", p.AccountID,
		"amount", p.Amount.String(),
		"new_balance", out.NewBalance.String(),
	)
	return &out, nil
}

// TopUp credits a confirmed gateway payment. Confirming the same reference
// twice returns the original transaction.
func (s *Service) TopUp(ctx context.Context, p TopUpParams) (*Transaction, error) {
	if p.Reference == "" {
		return nil, ErrReferenceRequired
	}
	if !p.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var out *Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByReference(ctx, TxTypeTopUp, p.Reference)
		if err == nil && existing != nil {
			if existing.AccountID != p.AccountID {
				return ErrDuplicateReference
			}
			out = existing
			return nil
		}
		if err != nil && !errors.Is(err, ErrTransactionNotFound) {
			return fmt.Errorf("failed to check top-up reference: %w", err)
		}

		out, err = s.apply(ctx, Entry{
			AccountID:   p.AccountID,
			Amount:      p.Amount,
			Type:        TxTypeTopUp,
			Reference:   p.Reference,
			Description: "Wallet top-up",
		}, p.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History returns the newest transactions of an account first
func (s *Service) History(ctx context.Context, accountID uuid.UUID, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = s.config.DefaultHistoryLimit
	}
	if limit > s.config.MaxHistoryLimit {
		limit = s.config.MaxHistoryLimit
	}

	return s.repo.ListTransactions(ctx, accountID, TransactionFilters{Limit: limit})
}

// Reconcile compares the cached balance against the sum of transactions
func (s *Service) Reconcile(ctx context.Context, accountID uuid.UUID) (*Reconciliation, error) {
	cached, err := s.repo.GetBalance(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cached balance: %w", err)
	}

	sum, err := s.repo.SumTransactions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}

	rec := &Reconciliation{AccountID: accountID, CachedBalance: cached, LedgerBalance: sum}
	if !rec.Balanced() {
		s.logger.WithContext(ctx).Error("wallet balance mismatch",
			"account_id", accountID,
			"cached", cached.String(),
			"ledger", sum.String(),
		)
	}
	return rec, nil
}

// apply writes one balance delta and its transaction. Callers hold the tx.
func (s *Service) apply(ctx context.Context, e Entry, signed money.Amount) (*Transaction, error) {
	if !e.Type.IsValid() {
		return nil, ErrInvalidTransactionType
	}

	if _, err := s.repo.ApplyBalanceDelta(ctx, e.AccountID, signed); err != nil {
		return nil, err
	}

	status := e.Status
	if status == "" {
		status = TransactionStatusCompleted
	}

	tx := &Transaction{
		ID:          uuid.New(),
		AccountID:   e.AccountID,
		Amount:      signed,
		Type:        e.Type,
		Status:      status,
		BookingID:   e.BookingID,
		Reference:   e.Reference,
		Description: e.Description,
		Metadata:    e.Metadata,
		CreatedAt:   s.now(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record %s transaction: %w", e.Type, err)
	}
	return tx, nil
}
