package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/money"
)

const (
	refundIndex         = "idx_wallet_transactions_refund"
	topUpReferenceIndex = "idx_wallet_transactions_top_up_reference"
)

// LedgerRepository implements the wallet repository using PostgreSQL
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Balance operations

// GetBalance returns the cached balance of an account
func (r *LedgerRepository) GetBalance(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	q := getQueryer(ctx, r.pool)

	var balance int64
	err := q.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ledger.ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return money.FromSen(balance), nil
}

// ApplyBalanceDelta adds delta to the balance in one conditional write
func (r *LedgerRepository) ApplyBalanceDelta(ctx context.Context, accountID uuid.UUID, delta money.Amount) (money.Amount, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance
	`

	q := getQueryer(ctx, r.pool)

	var balance int64
	err := q.QueryRow(ctx, query, accountID, delta.Sen()).Scan(&balance)
	if err == nil {
		return money.FromSen(balance), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to apply balance delta: %w", err)
	}

	// No row matched: either the account is missing or the balance is short
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check account: %w", err)
	}
	if !exists {
		return 0, ledger.ErrAccountNotFound
	}
	return 0, ledger.ErrInsufficientBalance
}

// SumTransactions returns the sum of all signed amounts of an account
func (r *LedgerRepository) SumTransactions(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	q := getQueryer(ctx, r.pool)

	var sum int64
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::BIGINT FROM wallet_transactions WHERE account_id = $1`,
		accountID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return money.FromSen(sum), nil
}

// GetBankDetails returns the payout account stored on the profile
func (r *LedgerRepository) GetBankDetails(ctx context.Context, accountID uuid.UUID) (*ledger.BankDetails, error) {
	q := getQueryer(ctx, r.pool)

	var bankName, accountNumber *string
	err := q.QueryRow(ctx,
		`SELECT bank_name, bank_account_number FROM accounts WHERE id = $1`,
		accountID,
	).Scan(&bankName, &accountNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get bank details: %w", err)
	}

	if bankName == nil && accountNumber == nil {
		return nil, nil
	}
	return &ledger.BankDetails{
		BankName:      deref(bankName),
		AccountNumber: deref(accountNumber),
	}, nil
}

// Transaction operations (append-only)

// InsertTransaction appends a wallet transaction
func (r *LedgerRepository) InsertTransaction(ctx context.Context, tx *ledger.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	metadata := tx.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO wallet_transactions (id, account_id, amount, type, status, booking_id, reference, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	q := getQueryer(ctx, r.pool)
	_, err = q.Exec(ctx, query,
		tx.ID,
		tx.AccountID,
		tx.Amount.Sen(),
		string(tx.Type),
		string(tx.Status),
		tx.BookingID,
		nullString(tx.Reference),
		tx.Description,
		metadataJSON,
		tx.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, refundIndex):
			return ledger.ErrAlreadyRefunded
		case isUniqueViolation(err, topUpReferenceIndex):
			return ledger.ErrDuplicateReference
		case isForeignKeyViolation(err):
			return ledger.ErrAccountNotFound
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// FindBookingTransaction returns the newest transaction of the given types for a booking and account
func (r *LedgerRepository) FindBookingTransaction(ctx context.Context, bookingID, accountID uuid.UUID, types ...ledger.TransactionType) (*ledger.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE booking_id = $1 AND account_id = $2 AND type = ANY($3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	q := getQueryer(ctx, r.pool)
	tx, err := scanTransaction(q.QueryRow(ctx, query, bookingID, accountID, typeNames(types)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find booking transaction: %w", err)
	}
	return tx, nil
}

// FindByReference returns the transaction recorded for an external reference
func (r *LedgerRepository) FindByReference(ctx context.Context, txType ledger.TransactionType, reference string) (*ledger.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE type = $1 AND reference = $2
		ORDER BY created_at
		LIMIT 1
	`

	q := getQueryer(ctx, r.pool)
	tx, err := scanTransaction(q.QueryRow(ctx, query, string(txType), reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by reference: %w", err)
	}
	return tx, nil
}

// ListTransactions returns the transactions of an account, newest first
func (r *LedgerRepository) ListTransactions(ctx context.Context, accountID uuid.UUID, filters ledger.TransactionFilters) ([]*ledger.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE account_id = $1
	`

	args := []any{accountID}
	argPos := 2

	if filters.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, string(*filters.Type))
		argPos++
	}

	query += " ORDER BY created_at DESC, id"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filters.Limit)
		argPos++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filters.Offset)
	}

	q := getQueryer(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*ledger.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

const transactionColumns = `id, account_id, amount, type, status, booking_id, COALESCE(reference, ''), description, metadata, created_at`

func scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var (
		tx           ledger.Transaction
		amount       int64
		txType       string
		status       string
		metadataJSON []byte
	)

	err := row.Scan(
		&tx.ID,
		&tx.AccountID,
		&amount,
		&txType,
		&status,
		&tx.BookingID,
		&tx.Reference,
		&tx.Description,
		&metadataJSON,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Amount = money.FromSen(amount)
	tx.Type = ledger.TransactionType(txType)
	tx.Status = ledger.TransactionStatus(status)

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &tx.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &tx, nil
}

func typeNames(types []ledger.TransactionType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
