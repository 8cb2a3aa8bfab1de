package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kislikjeka/handygo/internal/platform/account"
	"github.com/kislikjeka/handygo/internal/platform/rating"
)

// RatingRepository implements rating.Repository using PostgreSQL.
// The aggregate lives on the handyman's accounts row.
type RatingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository creates a new PostgreSQL rating repository
func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

const ratingColumns = `booking_id, handyman_id, user_id, user_name, score, review, created_at, updated_at`

// GetByBooking retrieves the rating of a booking
func (r *RatingRepository) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*rating.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE booking_id = $1`

	q := getQueryer(ctx, r.pool)
	rt, err := scanRating(q.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rating.ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return rt, nil
}

// Upsert inserts a rating or replaces the one already left on the booking
func (r *RatingRepository) Upsert(ctx context.Context, rt *rating.Rating) error {
	query := `
		INSERT INTO ratings (` + ratingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (booking_id) DO UPDATE
		SET score = EXCLUDED.score,
		    review = EXCLUDED.review,
		    user_name = EXCLUDED.user_name,
		    updated_at = EXCLUDED.updated_at
	`

	q := getQueryer(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		rt.BookingID,
		rt.HandymanID,
		rt.UserID,
		rt.UserName,
		rt.Score,
		rt.Review,
		rt.CreatedAt,
		rt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

// ListByHandyman returns the newest ratings of a handyman
func (r *RatingRepository) ListByHandyman(ctx context.Context, handymanID uuid.UUID, limit int) ([]*rating.Rating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM ratings
		WHERE handyman_id = $1
		ORDER BY updated_at DESC, booking_id
		LIMIT $2
	`

	q := getQueryer(ctx, r.pool)
	rows, err := q.Query(ctx, query, handymanID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]*rating.Rating, 0)
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

const summaryQuery = `
	SELECT id, total_ratings, rating_sum, average_rating::text
	FROM accounts
	WHERE id = $1 AND role = 'handyman'`

// GetSummary reads the rating aggregate of a handyman
func (r *RatingRepository) GetSummary(ctx context.Context, handymanID uuid.UUID) (*rating.Summary, error) {
	return r.summary(ctx, summaryQuery, handymanID)
}

// LockSummary reads the aggregate and locks the handyman row
func (r *RatingRepository) LockSummary(ctx context.Context, handymanID uuid.UUID) (*rating.Summary, error) {
	return r.summary(ctx, summaryQuery+` FOR UPDATE`, handymanID)
}

func (r *RatingRepository) summary(ctx context.Context, query string, handymanID uuid.UUID) (*rating.Summary, error) {
	var (
		s       rating.Summary
		average string
	)

	q := getQueryer(ctx, r.pool)
	err := q.QueryRow(ctx, query, handymanID).Scan(&s.HandymanID, &s.Total, &s.Sum, &average)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}

	s.Average, err = decimal.NewFromString(average)
	if err != nil {
		return nil, fmt.Errorf("failed to parse average rating %q: %w", average, err)
	}
	return &s, nil
}

// SaveSummary writes the rating aggregate back to the handyman row
func (r *RatingRepository) SaveSummary(ctx context.Context, s *rating.Summary) error {
	query := `
		UPDATE accounts
		SET total_ratings = $2, rating_sum = $3, average_rating = $4::text::numeric, updated_at = NOW()
		WHERE id = $1
	`

	q := getQueryer(ctx, r.pool)
	result, err := q.Exec(ctx, query, s.HandymanID, s.Total, s.Sum, s.Average.StringFixed(2))
	if err != nil {
		return fmt.Errorf("failed to save rating summary: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

func scanRating(row pgx.Row) (*rating.Rating, error) {
	var rt rating.Rating
	err := row.Scan(
		&rt.BookingID,
		&rt.HandymanID,
		&rt.UserID,
		&rt.UserName,
		&rt.Score,
		&rt.Review,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}
