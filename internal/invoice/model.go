package invoice

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/pkg/money"
)

// Item is one invoice line
type Item struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	Name      string
	Quantity  int
	UnitPrice money.Amount
	Total     money.Amount
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaxQuantity bounds the quantity of one line
const MaxQuantity = 10_000

// recompute refreshes the line total from quantity and unit price
func (i *Item) recompute() error {
	total, err := i.UnitPrice.Mul(int64(i.Quantity))
	if err != nil {
		return ErrLineTotalTooLarge
	}
	i.Total = total
	return nil
}

// Invoice is the fare breakdown of a booking, keyed by booking ID
type Invoice struct {
	BookingID  uuid.UUID
	BaseFare   money.Amount
	Fare       money.Amount
	ManualFare bool
	Items      []Item
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ItemsTotal sums the line totals
func (inv *Invoice) ItemsTotal() money.Amount {
	var total money.Amount
	for _, item := range inv.Items {
		total += item.Total
	}
	return total
}

// Recompute sets the fare to base fare plus items unless the fare is pinned
func (inv *Invoice) Recompute() error {
	if inv.ManualFare {
		return nil
	}
	fare := inv.BaseFare
	for _, item := range inv.Items {
		fare += item.Total
		if !fare.InRange() {
			return ErrFareTooLarge
		}
	}
	inv.Fare = fare
	return nil
}

func (inv *Invoice) findItem(itemID uuid.UUID) (int, bool) {
	for i := range inv.Items {
		if inv.Items[i].ID == itemID {
			return i, true
		}
	}
	return -1, false
}

// ItemInput is a new invoice line
type ItemInput struct {
	Name      string
	Quantity  int
	UnitPrice money.Amount
}

// Validate checks the line fields
func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrItemNameRequired
	}
	if in.Quantity < 1 || in.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if in.UnitPrice.IsNegative() || !in.UnitPrice.InRange() {
		return ErrInvalidUnitPrice
	}
	if _, err := in.UnitPrice.Mul(int64(in.Quantity)); err != nil {
		return ErrLineTotalTooLarge
	}
	return nil
}

// ItemPatch is a partial item update; nil fields are left unchanged
type ItemPatch struct {
	Name      *string
	Quantity  *int
	UnitPrice *money.Amount
}

// BookingFare is the booking state the invoice reads and mirrors
type BookingFare struct {
	BookingID  uuid.UUID
	UserID     uuid.UUID
	HandymanID uuid.UUID
	Status     booking.Status
	BaseFare   money.Amount
	TotalFare  money.Amount
	ManualFare bool
}

// FareUpdate is written back to the booking after every invoice change
type FareUpdate struct {
	BookingID uuid.UUID
	BaseFare  money.Amount
	TotalFare money.Amount
	Manual    bool
}

// LegacyMaterial is one entry of the old flat materials list
type LegacyMaterial struct {
	Name     string       `json:"name"`
	Quantity int          `json:"quantity"`
	Price    money.Amount `json:"price"`
}

// LegacyBooking is a booking that still carries a materials list
type LegacyBooking struct {
	BookingID uuid.UUID
	Materials []LegacyMaterial
	// Err is set when the stored list could not be decoded
	Err error
}

// MigrationFailure records one booking that could not be migrated
type MigrationFailure struct {
	BookingID uuid.UUID `json:"bookingId"`
	Error     string    `json:"error"`
}

// MigrationReport tallies a legacy migration run
type MigrationReport struct {
	Total    int                `json:"total"`
	Migrated int                `json:"migrated"`
	Failed   int                `json:"failed"`
	Failures []MigrationFailure `json:"failures"`
}
