package ledger_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/money"
)

// =============================================================================
// In-memory store implementing Repository and Transactor
// =============================================================================

type account struct {
	balance money.Amount
	bank    *ledger.BankDetails
}

type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account
	txs      []*ledger.Transaction
	txMu     sync.Mutex

	// failInsertOn makes InsertTransaction fail for the given type
	failInsertOn ledger.TransactionType
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[uuid.UUID]*account)}
}

func (s *memStore) addAccount(id uuid.UUID, balance money.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id] = &account{balance: balance}
	if balance != 0 {
		// Seed the ledger so the cached balance reconciles
		s.txs = append(s.txs, &ledger.Transaction{
			ID: uuid.New(), AccountID: id, Amount: balance,
			Type: ledger.TxTypeTopUp, Status: ledger.TransactionStatusCompleted,
			Reference: "seed-" + id.String(),
		})
	}
}

func (s *memStore) setBank(id uuid.UUID, bank *ledger.BankDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id].bank = bank
}

type txKey struct{}

// WithinTx serializes outer transactions, snapshots state and restores it
// when fn fails. Nested calls join the outer transaction.
func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	balances := make(map[uuid.UUID]money.Amount, len(s.accounts))
	for id, a := range s.accounts {
		balances[id] = a.balance
	}
	txCount := len(s.txs)
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, txKey{}, true))
	if err != nil {
		s.mu.Lock()
		for id, b := range balances {
			s.accounts[id].balance = b
		}
		s.txs = s.txs[:txCount]
		s.mu.Unlock()
	}
	return err
}

func (s *memStore) GetBalance(_ context.Context, accountID uuid.UUID) (money.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return 0, ledger.ErrAccountNotFound
	}
	return a.balance, nil
}

func (s *memStore) ApplyBalanceDelta(_ context.Context, accountID uuid.UUID, delta money.Amount) (money.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return 0, ledger.ErrAccountNotFound
	}
	if a.balance+delta < 0 {
		return 0, ledger.ErrInsufficientBalance
	}
	a.balance += delta
	return a.balance, nil
}

func (s *memStore) SumTransactions(_ context.Context, accountID uuid.UUID) (money.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum money.Amount
	for _, tx := range s.txs {
		if tx.AccountID == accountID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (s *memStore) GetBankDetails(_ context.Context, accountID uuid.UUID) (*ledger.BankDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return a.bank, nil
}

func (s *memStore) InsertTransaction(_ context.Context, tx *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsertOn != "" && tx.Type == s.failInsertOn {
		return errInsertFailed
	}
	s.txs = append(s.txs, tx)
	return nil
}

func (s *memStore) FindBookingTransaction(_ context.Context, bookingID, accountID uuid.UUID, types ...ledger.TransactionType) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.BookingID == nil || *tx.BookingID != bookingID || tx.AccountID != accountID {
			continue
		}
		for _, t := range types {
			if tx.Type == t {
				return tx, nil
			}
		}
	}
	return nil, ledger.ErrTransactionNotFound
}

func (s *memStore) FindByReference(_ context.Context, txType ledger.TransactionType, reference string) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.Type == txType && tx.Reference == reference {
			return tx, nil
		}
	}
	return nil, ledger.ErrTransactionNotFound
}

func (s *memStore) ListTransactions(_ context.Context, accountID uuid.UUID, filters ledger.TransactionFilters) ([]*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledger.Transaction
	for i := len(s.txs) - 1; i >= 0; i-- {
		if s.txs[i].AccountID == accountID {
			out = append(out, s.txs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (s *memStore) countType(accountID uuid.UUID, txType ledger.TransactionType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tx := range s.txs {
		if tx.AccountID == accountID && tx.Type == txType {
			n++
		}
	}
	return n
}

var (
	_ ledger.Repository = (*memStore)(nil)
	_ ledger.Transactor = (*memStore)(nil)
)

// =============================================================================
// Fare source stub
// =============================================================================

type fixedFare struct {
	fare money.Amount
	err  error
}

func (f fixedFare) Fare(context.Context) (money.Amount, error) {
	return f.fare, f.err
}

type storeError string

func (e storeError) Error() string { return string(e) }

const errInsertFailed = storeError("insert failed")
