package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/pkg/money"
)

// InvoiceRepository implements invoice.Repository using PostgreSQL
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new PostgreSQL invoice repository
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// Get returns an invoice with its items
func (r *InvoiceRepository) Get(ctx context.Context, bookingID uuid.UUID) (*invoice.Invoice, error) {
	return r.get(ctx, bookingID, false)
}

// GetOrCreateForUpdate inserts seed when missing and returns the stored invoice locked.
// Uses INSERT...ON CONFLICT DO NOTHING so concurrent first writes converge on one row.
func (r *InvoiceRepository) GetOrCreateForUpdate(ctx context.Context, seed *invoice.Invoice) (*invoice.Invoice, error) {
	query := `
		INSERT INTO invoices (booking_id, base_fare, fare, manual_fare, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (booking_id) DO NOTHING
	`

	q := getQueryer(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		seed.BookingID,
		seed.BaseFare.Sen(),
		seed.Fare.Sen(),
		seed.ManualFare,
		seed.CreatedAt,
		seed.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	return r.get(ctx, seed.BookingID, true)
}

func (r *InvoiceRepository) get(ctx context.Context, bookingID uuid.UUID, forUpdate bool) (*invoice.Invoice, error) {
	query := `
		SELECT booking_id, base_fare, fare, manual_fare, created_at, updated_at
		FROM invoices
		WHERE booking_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		inv            invoice.Invoice
		baseFare, fare int64
	)

	q := getQueryer(ctx, r.pool)
	err := q.QueryRow(ctx, query, bookingID).Scan(
		&inv.BookingID,
		&baseFare,
		&fare,
		&inv.ManualFare,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	inv.BaseFare = money.FromSen(baseFare)
	inv.Fare = money.FromSen(fare)

	items, err := r.listItems(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	return &inv, nil
}

func (r *InvoiceRepository) listItems(ctx context.Context, bookingID uuid.UUID) ([]invoice.Item, error) {
	query := `
		SELECT id, booking_id, name, quantity, unit_price, total, position, created_at, updated_at
		FROM invoice_items
		WHERE booking_id = $1
		ORDER BY position, created_at
	`

	q := getQueryer(ctx, r.pool)
	rows, err := q.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice items: %w", err)
	}
	defer rows.Close()

	items := make([]invoice.Item, 0)
	for rows.Next() {
		var (
			item             invoice.Item
			unitPrice, total int64
		)
		err := rows.Scan(
			&item.ID,
			&item.BookingID,
			&item.Name,
			&item.Quantity,
			&unitPrice,
			&total,
			&item.Position,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		item.UnitPrice = money.FromSen(unitPrice)
		item.Total = money.FromSen(total)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice items: %w", err)
	}

	return items, nil
}

// Update writes the invoice header
func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices
		SET base_fare = $2, fare = $3, manual_fare = $4, updated_at = $5
		WHERE booking_id = $1
	`

	q := getQueryer(ctx, r.pool)
	result, err := q.Exec(ctx, query, inv.BookingID, inv.BaseFare.Sen(), inv.Fare.Sen(), inv.ManualFare, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return invoice.ErrInvoiceNotFound
	}
	return nil
}

// AddItem appends a line to an invoice
func (r *InvoiceRepository) AddItem(ctx context.Context, item *invoice.Item) error {
	query := `
		INSERT INTO invoice_items (id, booking_id, name, quantity, unit_price, total, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	q := getQueryer(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		item.ID,
		item.BookingID,
		item.Name,
		item.Quantity,
		item.UnitPrice.Sen(),
		item.Total.Sen(),
		item.Position,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return invoice.ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to add invoice item: %w", err)
	}
	return nil
}

// UpdateItem rewrites one line
func (r *InvoiceRepository) UpdateItem(ctx context.Context, item *invoice.Item) error {
	query := `
		UPDATE invoice_items
		SET name = $3, quantity = $4, unit_price = $5, total = $6, updated_at = $7
		WHERE booking_id = $1 AND id = $2
	`

	q := getQueryer(ctx, r.pool)
	result, err := q.Exec(ctx, query,
		item.BookingID,
		item.ID,
		item.Name,
		item.Quantity,
		item.UnitPrice.Sen(),
		item.Total.Sen(),
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return invoice.ErrItemNotFound
	}
	return nil
}

// DeleteItem removes one line
func (r *InvoiceRepository) DeleteItem(ctx context.Context, bookingID, itemID uuid.UUID) error {
	q := getQueryer(ctx, r.pool)
	result, err := q.Exec(ctx, `DELETE FROM invoice_items WHERE booking_id = $1 AND id = $2`, bookingID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return invoice.ErrItemNotFound
	}
	return nil
}

// ReplaceItems swaps every line of an invoice
func (r *InvoiceRepository) ReplaceItems(ctx context.Context, bookingID uuid.UUID, items []invoice.Item) error {
	q := getQueryer(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM invoice_items WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("failed to clear invoice items: %w", err)
	}

	for i := range items {
		if err := r.AddItem(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}
