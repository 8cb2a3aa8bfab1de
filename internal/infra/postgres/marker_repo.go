package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/handygo/internal/platform/notify"
)

// MarkerRepository implements notify.MarkerStore using PostgreSQL
type MarkerRepository struct {
	pool *pgxpool.Pool
}

// NewMarkerRepository creates a new PostgreSQL notification marker repository
func NewMarkerRepository(pool *pgxpool.Pool) *MarkerRepository {
	return &MarkerRepository{pool: pool}
}

// Claim records a notification as sent, reporting false when it already was
func (r *MarkerRepository) Claim(ctx context.Context, m notify.Marker) (bool, error) {
	query := `
		INSERT INTO notification_markers (booking_id, status, audience, sent_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (booking_id, status, audience) DO NOTHING
	`

	q := getQueryer(ctx, r.pool)
	result, err := q.Exec(ctx, query, m.BookingID, m.Status, string(m.Audience), m.SentAt)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification marker: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
