package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/internal/platform/account"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/money"
)

// AccountRepository implements account.Repository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account with a zero balance
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (id, role, name, email, phone, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	q := getQueryer(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		a.ID,
		string(a.Role),
		a.Name,
		nullString(a.Email),
		nullString(a.Phone),
		a.Available,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return account.ErrAccountExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT id, role, name, COALESCE(email, ''), COALESCE(phone, ''), balance, COALESCE(push_token, ''),
		       bank_name, bank_account_number, latitude, longitude, available, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var (
		a                     account.Account
		role                  string
		balance               int64
		bankName, bankAccount *string
		latitude, longitude   *float64
	)

	q := getQueryer(ctx, r.pool)
	err := q.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&role,
		&a.Name,
		&a.Email,
		&a.Phone,
		&balance,
		&a.PushToken,
		&bankName,
		&bankAccount,
		&latitude,
		&longitude,
		&a.Available,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	a.Role = account.Role(role)
	a.Balance = money.FromSen(balance)
	if bankName != nil || bankAccount != nil {
		a.Bank = &ledger.BankDetails{BankName: deref(bankName), AccountNumber: deref(bankAccount)}
	}
	if latitude != nil && longitude != nil {
		a.Location = &geo.Point{Latitude: *latitude, Longitude: *longitude}
	}

	return &a, nil
}

// UpdatePushToken stores the device token of an account
func (r *AccountRepository) UpdatePushToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.update(ctx, "push token",
		`UPDATE accounts SET push_token = $2, updated_at = NOW() WHERE id = $1`, id, token)
}

// UpdateLocation stores the last known position of an account
func (r *AccountRepository) UpdateLocation(ctx context.Context, id uuid.UUID, p geo.Point) error {
	return r.update(ctx, "location",
		`UPDATE accounts SET latitude = $2, longitude = $3, location_updated_at = NOW(), updated_at = NOW() WHERE id = $1`,
		id, p.Latitude, p.Longitude)
}

// UpdateBankDetails stores the payout account of a handyman
func (r *AccountRepository) UpdateBankDetails(ctx context.Context, id uuid.UUID, bank ledger.BankDetails) error {
	return r.update(ctx, "bank details",
		`UPDATE accounts SET bank_name = $2, bank_account_number = $3, updated_at = NOW() WHERE id = $1`,
		id, bank.BankName, bank.AccountNumber)
}

// SetAvailability toggles whether a handyman takes new bookings
func (r *AccountRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return r.update(ctx, "availability",
		`UPDATE accounts SET available = $2, updated_at = NOW() WHERE id = $1`, id, available)
}

func (r *AccountRepository) update(ctx context.Context, what, query string, args ...any) error {
	q := getQueryer(ctx, r.pool)
	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}
