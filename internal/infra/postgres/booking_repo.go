package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/money"
)

const activeSlotIndex = "idx_bookings_active_slot"

// BookingRepository implements booking.Repository and invoice.BookingStore using PostgreSQL
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository creates a new PostgreSQL booking repository
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `
	id, user_id, handyman_id, category, description, status, slot, to_char(service_date, 'YYYY-MM-DD'),
	scheduled_start, scheduled_end, address, latitude, longitude,
	processing_fee, base_fare, total_fare, manual_fare, has_invoice, arrival_notified,
	status_reason, expiry_reason, created_at, updated_at, completed_at, cancelled_at, expired_at`

// Create inserts a new booking
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	query := `
		INSERT INTO bookings (
			id, user_id, handyman_id, category, description, status, slot, service_date,
			scheduled_start, scheduled_end, address, latitude, longitude,
			processing_fee, base_fare, total_fare, manual_fare, has_invoice, arrival_notified,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	var latitude, longitude *float64
	if b.Location != nil {
		latitude, longitude = &b.Location.Latitude, &b.Location.Longitude
	}

	q := getQueryer(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		b.ID,
		b.UserID,
		b.HandymanID,
		b.Category,
		b.Description,
		string(b.Status),
		string(b.Slot),
		b.ServiceDate,
		b.ScheduledStart,
		b.ScheduledEnd,
		b.Address,
		latitude,
		longitude,
		b.ProcessingFee.Sen(),
		b.BaseFare.Sen(),
		b.TotalFare.Sen(),
		b.ManualFare,
		b.HasInvoice,
		b.ArrivalNotified,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, activeSlotIndex) {
			return booking.ErrSlotTaken
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	q := getQueryer(ctx, r.pool)
	b, err := scanBooking(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetByIDForUpdate retrieves a booking and locks its row for the current transaction
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	q := getQueryer(ctx, r.pool)
	b, err := scanBooking(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}
	return b, nil
}

// Transition applies a compare-and-set status change and stamps the matching timestamp
func (r *BookingRepository) Transition(ctx context.Context, t booking.Transition) (*booking.Booking, error) {
	query := `
		UPDATE bookings
		SET status        = $3::text,
		    updated_at    = $4::timestamptz,
		    completed_at  = CASE WHEN $3::text = 'Completed-Unpaid' THEN $4::timestamptz ELSE completed_at END,
		    cancelled_at  = CASE WHEN $3::text = 'cancelled' THEN $4::timestamptz ELSE cancelled_at END,
		    expired_at    = CASE WHEN $3::text = 'expired' THEN $4::timestamptz ELSE expired_at END,
		    status_reason = CASE WHEN $5::text <> '' THEN $5::text ELSE status_reason END,
		    expiry_reason = CASE WHEN $6::text <> '' THEN $6::text ELSE expiry_reason END
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	q := getQueryer(ctx, r.pool)
	b, err := scanBooking(q.QueryRow(ctx, query,
		t.BookingID,
		string(t.From),
		string(t.To),
		t.At,
		t.Reason,
		string(t.ExpiryReason),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrStatusConflict
		}
		return nil, fmt.Errorf("failed to transition booking: %w", err)
	}
	return b, nil
}

// ListByUser returns the bookings a user requested, newest first
func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, filters booking.Filters) ([]*booking.Booking, error) {
	return r.list(ctx, "user_id", userID, filters)
}

// ListByHandyman returns the bookings assigned to a handyman, newest first
func (r *BookingRepository) ListByHandyman(ctx context.Context, handymanID uuid.UUID, filters booking.Filters) ([]*booking.Booking, error) {
	return r.list(ctx, "handyman_id", handymanID, filters)
}

func (r *BookingRepository) list(ctx context.Context, column string, id uuid.UUID, filters booking.Filters) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + column + ` = $1`

	args := []any{id}
	argPos := 2

	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(*filters.Status))
		argPos++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filters.Limit)
	}

	return r.query(ctx, query, args...)
}

// ListPending returns every Pending booking, oldest first
func (r *BookingRepository) ListPending(ctx context.Context) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY created_at`
	return r.query(ctx, query, string(booking.StatusPending))
}

// BookedSlots returns the slots a handyman holds with active bookings on a date
func (r *BookingRepository) BookedSlots(ctx context.Context, handymanID uuid.UUID, serviceDate string) ([]booking.Slot, error) {
	query := `
		SELECT slot FROM bookings
		WHERE handyman_id = $1 AND service_date = $2::date AND status = ANY($3)
		ORDER BY slot
	`

	q := getQueryer(ctx, r.pool)
	rows, err := q.Query(ctx, query, handymanID, serviceDate, activeStatusNames())
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	defer rows.Close()

	slots := make([]booking.Slot, 0)
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, booking.Slot(slot))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}

	return slots, nil
}

// SlotTaken reports whether an active booking already holds the slot
func (r *BookingRepository) SlotTaken(ctx context.Context, handymanID uuid.UUID, serviceDate string, slot booking.Slot) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE handyman_id = $1 AND service_date = $2::date AND slot = $3 AND status = ANY($4)
		)
	`

	var taken bool
	q := getQueryer(ctx, r.pool)
	if err := q.QueryRow(ctx, query, handymanID, serviceDate, string(slot), activeStatusNames()).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return taken, nil
}

// ListArrivalCandidates returns In-Progress bookings of a handyman that have
// coordinates and no arrival notification yet
func (r *BookingRepository) ListArrivalCandidates(ctx context.Context, handymanID uuid.UUID) ([]*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE handyman_id = $1 AND status = $2 AND NOT arrival_notified
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
	`
	return r.query(ctx, query, handymanID, string(booking.StatusInProgress))
}

// MarkArrived sets arrival_notified once
func (r *BookingRepository) MarkArrived(ctx context.Context, id uuid.UUID) (bool, error) {
	q := getQueryer(ctx, r.pool)
	result, err := q.Exec(ctx,
		`UPDATE bookings SET arrival_notified = TRUE, updated_at = NOW() WHERE id = $1 AND NOT arrival_notified`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark arrival: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// CreatePayment records the settlement of a booking
func (r *BookingRepository) CreatePayment(ctx context.Context, p *booking.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, user_id, handyman_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	q := getQueryer(ctx, r.pool)
	_, err := q.Exec(ctx, query, p.ID, p.BookingID, p.UserID, p.HandymanID, p.Amount.Sen(), p.Status, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return booking.ErrPaymentExists
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// Stats summarises the jobs and earnings of a handyman
func (r *BookingRepository) Stats(ctx context.Context, handymanID uuid.UUID) (*booking.Stats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = ANY($2)),
			COUNT(*) FILTER (WHERE status IN ('Completed-Unpaid', 'Completed-Paid')),
			COALESCE(SUM(total_fare) FILTER (WHERE status = 'Completed-Unpaid'), 0)::BIGINT,
			(SELECT COALESCE(SUM(amount), 0)::BIGINT FROM payments WHERE handyman_id = $1 AND status = 'completed')
		FROM bookings
		WHERE handyman_id = $1
	`

	var (
		stats     booking.Stats
		remaining int64
		revenue   int64
	)

	q := getQueryer(ctx, r.pool)
	err := q.QueryRow(ctx, query, handymanID, activeStatusNames()).Scan(
		&stats.ActiveBookings,
		&stats.CompletedJobs,
		&remaining,
		&revenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get handyman stats: %w", err)
	}

	stats.RemainingPayout = money.FromSen(remaining)
	stats.TotalRevenue = money.FromSen(revenue)
	return &stats, nil
}

// Invoice side

const bookingFareQuery = `
	SELECT id, user_id, handyman_id, status, base_fare, total_fare, manual_fare
	FROM bookings
	WHERE id = $1`

// GetBookingFare reads the fare fields an invoice mirrors
func (r *BookingRepository) GetBookingFare(ctx context.Context, bookingID uuid.UUID) (*invoice.BookingFare, error) {
	return r.bookingFare(ctx, bookingFareQuery, bookingID)
}

// LockBookingFare reads the fare fields and locks the booking row, so the
// status checked by the invoice cannot change before it commits
func (r *BookingRepository) LockBookingFare(ctx context.Context, bookingID uuid.UUID) (*invoice.BookingFare, error) {
	return r.bookingFare(ctx, bookingFareQuery+` FOR UPDATE`, bookingID)
}

func (r *BookingRepository) bookingFare(ctx context.Context, query string, bookingID uuid.UUID) (*invoice.BookingFare, error) {
	var (
		bf                  invoice.BookingFare
		status              string
		baseFare, totalFare int64
	)

	q := getQueryer(ctx, r.pool)
	err := q.QueryRow(ctx, query, bookingID).Scan(
		&bf.BookingID, &bf.UserID, &bf.HandymanID, &status, &baseFare, &totalFare, &bf.ManualFare,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking fare: %w", err)
	}

	bf.Status = booking.Status(status)
	bf.BaseFare = money.FromSen(baseFare)
	bf.TotalFare = money.FromSen(totalFare)
	return &bf, nil
}

// ApplyFare mirrors the invoice fare onto the booking
func (r *BookingRepository) ApplyFare(ctx context.Context, u invoice.FareUpdate) error {
	query := `
		UPDATE bookings
		SET base_fare = $2, total_fare = $3, manual_fare = $4, has_invoice = TRUE, updated_at = NOW()
		WHERE id = $1
	`

	q := getQueryer(ctx, r.pool)
	result, err := q.Exec(ctx, query, u.BookingID, u.BaseFare.Sen(), u.TotalFare.Sen(), u.Manual)
	if err != nil {
		return fmt.Errorf("failed to apply fare: %w", err)
	}
	if result.RowsAffected() == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// ListLegacyMaterials returns bookings that still carry a flat materials list.
// A list that cannot be decoded is returned with Err set.
func (r *BookingRepository) ListLegacyMaterials(ctx context.Context) ([]invoice.LegacyBooking, error) {
	query := `
		SELECT id, legacy_materials
		FROM bookings
		WHERE legacy_materials IS NOT NULL
		ORDER BY created_at
	`

	q := getQueryer(ctx, r.pool)
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy materials: %w", err)
	}
	defer rows.Close()

	legacy := make([]invoice.LegacyBooking, 0)
	for rows.Next() {
		var (
			lb  invoice.LegacyBooking
			raw []byte
		)
		if err := rows.Scan(&lb.BookingID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan legacy materials: %w", err)
		}
		if err := json.Unmarshal(raw, &lb.Materials); err != nil {
			lb.Err = fmt.Errorf("failed to decode materials: %w", err)
		}
		legacy = append(legacy, lb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy materials: %w", err)
	}

	return legacy, nil
}

// ClearLegacyMaterials drops the materials list after migration
func (r *BookingRepository) ClearLegacyMaterials(ctx context.Context, bookingID uuid.UUID) error {
	q := getQueryer(ctx, r.pool)
	_, err := q.Exec(ctx, `UPDATE bookings SET legacy_materials = NULL, updated_at = NOW() WHERE id = $1`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to clear legacy materials: %w", err)
	}
	return nil
}

func (r *BookingRepository) query(ctx context.Context, query string, args ...any) ([]*booking.Booking, error) {
	q := getQueryer(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*booking.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		b                          booking.Booking
		status, slot, expiryReason string
		latitude, longitude        *float64
		processingFee, base, total int64
	)

	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.HandymanID,
		&b.Category,
		&b.Description,
		&status,
		&slot,
		&b.ServiceDate,
		&b.ScheduledStart,
		&b.ScheduledEnd,
		&b.Address,
		&latitude,
		&longitude,
		&processingFee,
		&base,
		&total,
		&b.ManualFare,
		&b.HasInvoice,
		&b.ArrivalNotified,
		&b.StatusReason,
		&expiryReason,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.CompletedAt,
		&b.CancelledAt,
		&b.ExpiredAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = booking.Status(status)
	b.Slot = booking.Slot(slot)
	b.ExpiryReason = booking.ExpiryReason(expiryReason)
	b.ProcessingFee = money.FromSen(processingFee)
	b.BaseFare = money.FromSen(base)
	b.TotalFare = money.FromSen(total)
	if latitude != nil && longitude != nil {
		b.Location = &geo.Point{Latitude: *latitude, Longitude: *longitude}
	}

	return &b, nil
}

func activeStatusNames() []string {
	active := booking.ActiveStatuses()
	names := make([]string, len(active))
	for i, s := range active {
		names[i] = string(s)
	}
	return names
}
