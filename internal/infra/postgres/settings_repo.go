package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/handygo/internal/platform/settings"
	"github.com/kislikjeka/handygo/pkg/money"
)

const fareSettingKey = "booking_fare"

// SettingsRepository implements settings.Repository using PostgreSQL
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new PostgreSQL settings repository
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// GetFare returns the stored global fare
func (r *SettingsRepository) GetFare(ctx context.Context) (money.Amount, error) {
	q := getQueryer(ctx, r.pool)

	var value string
	err := q.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, fareSettingKey).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, settings.ErrFareNotSet
		}
		return 0, fmt.Errorf("failed to get fare setting: %w", err)
	}

	fare, err := money.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("invalid stored fare %q: %w", value, err)
	}
	return fare, nil
}

// SetFare upserts the global fare
func (r *SettingsRepository) SetFare(ctx context.Context, fare money.Amount, updatedAt time.Time) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	q := getQueryer(ctx, r.pool)
	if _, err := q.Exec(ctx, query, fareSettingKey, fare.String(), updatedAt); err != nil {
		return fmt.Errorf("failed to set fare setting: %w", err)
	}
	return nil
}
