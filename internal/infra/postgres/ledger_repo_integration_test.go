//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/money"
)

func TestLedgerRepository_ApplyBalanceDelta(t *testing.T) {
	s, ctx := setupTest(t)
	accountID := createAccount(t, ctx, "user")

	balance, err := s.ledgers.ApplyBalanceDelta(ctx, accountID, money.RM(20))
	require.NoError(t, err)
	assert.Equal(t, money.RM(20), balance)

	balance, err = s.ledgers.ApplyBalanceDelta(ctx, accountID, money.RM(-15))
	require.NoError(t, err)
	assert.Equal(t, money.RM(5), balance)

	_, err = s.ledgers.ApplyBalanceDelta(ctx, accountID, money.RM(-6))
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	_, err = s.ledgers.ApplyBalanceDelta(ctx, uuid.New(), money.RM(1))
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	got, err := s.ledgers.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(5), got)
}

func TestLedgerRepository_RefundUniqueIndex(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	handymanID := createAccount(t, ctx, "handyman")
	seedBalance(t, ctx, s, userID, money.RM(50))

	b, err := s.booking.Create(ctx, bookingParams(userID, handymanID, "Slot 1"))
	require.NoError(t, err)

	refund := func(txType ledger.TransactionType) error {
		return s.ledgers.InsertTransaction(ctx, &ledger.Transaction{
			ID:          uuid.New(),
			AccountID:   userID,
			Amount:      money.RM(15),
			Type:        txType,
			Status:      ledger.TransactionStatusCompleted,
			BookingID:   &b.ID,
			Description: "refund",
			CreatedAt:   time.Now().UTC(),
		})
	}

	require.NoError(t, refund(ledger.TxTypeRefund))
	// The auto-refund shares the index with the manual refund
	assert.ErrorIs(t, refund(ledger.TxTypeAutoRefund), ledger.ErrAlreadyRefunded)
}

func TestLedgerRepository_TopUpReference(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	otherID := createAccount(t, ctx, "user")

	first, err := s.wallet.TopUp(ctx, ledger.TopUpParams{AccountID: userID, Amount: money.RM(30), Reference: "pi_123"})
	require.NoError(t, err)

	again, err := s.wallet.TopUp(ctx, ledger.TopUpParams{AccountID: userID, Amount: money.RM(30), Reference: "pi_123"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = s.wallet.TopUp(ctx, ledger.TopUpParams{AccountID: otherID, Amount: money.RM(30), Reference: "pi_123"})
	assert.ErrorIs(t, err, ledger.ErrDuplicateReference)

	balance, err := s.ledgers.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(30), balance)
}

func TestLedgerRepository_ListTransactions(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")
	seedBalance(t, ctx, s, userID, money.RM(100))

	_, err := s.wallet.TopUp(ctx, ledger.TopUpParams{AccountID: userID, Amount: money.RM(10), Reference: "pi_second"})
	require.NoError(t, err)

	all, err := s.ledgers.ListTransactions(ctx, userID, ledger.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "pi_second", all[0].Reference)

	topUp := ledger.TxTypeTopUp
	page, err := s.ledgers.ListTransactions(ctx, userID, ledger.TransactionFilters{Type: &topUp, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "seed-"+userID.String(), page[0].Reference)

	sum, err := s.ledgers.SumTransactions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.RM(110), sum)
}

func TestLedgerRepository_BankDetails(t *testing.T) {
	s, ctx := setupTest(t)
	handymanID := createAccount(t, ctx, "handyman")

	bank, err := s.ledgers.GetBankDetails(ctx, handymanID)
	require.NoError(t, err)
	assert.Nil(t, bank)

	require.NoError(t, s.accounts.UpdateBankDetails(ctx, handymanID, ledger.BankDetails{BankName: "Maybank", AccountNumber: "1234567890"}))

	bank, err = s.ledgers.GetBankDetails(ctx, handymanID)
	require.NoError(t, err)
	require.NotNil(t, bank)
	assert.True(t, bank.Complete())
	assert.Equal(t, "Maybank", bank.BankName)
}

func TestSettingsRepository_Fare(t *testing.T) {
	s, ctx := setupTest(t)

	_, err := s.settings.GetFare(ctx)
	require.Error(t, err)

	require.NoError(t, s.settings.SetFare(ctx, money.FromSen(1750), time.Now().UTC()))
	require.NoError(t, s.settings.SetFare(ctx, money.FromSen(2000), time.Now().UTC()))

	fare, err := s.settings.GetFare(ctx)
	require.NoError(t, err)
	assert.Equal(t, money.RM(20), fare)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	s, ctx := setupTest(t)
	userID := createAccount(t, ctx, "user")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledgers.ApplyBalanceDelta(ctx, userID, money.RM(40)); err != nil {
			return err
		}
		// Nested call joins the outer transaction
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.ledgers.ApplyBalanceDelta(ctx, userID, money.RM(-50))
			return err
		})
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	balance, err := s.ledgers.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), balance)
}

func TestAccountRepository_Lifecycle(t *testing.T) {
	s, ctx := setupTest(t)
	id := createAccount(t, ctx, "handyman")

	require.NoError(t, s.accounts.UpdatePushToken(ctx, id, "device-token"))
	require.NoError(t, s.accounts.SetAvailability(ctx, id, false))

	a, err := s.accounts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "device-token", a.PushToken)
	assert.False(t, a.Available)
	assert.Nil(t, a.Bank)
	assert.Nil(t, a.Location)

	assert.Error(t, s.accounts.UpdatePushToken(ctx, uuid.New(), "x"))
}
