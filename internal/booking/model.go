package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/money"
)

// Booking is a single service request moving through the lifecycle
type Booking struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	HandymanID  uuid.UUID
	Category    string
	Description string
	Status      Status

	Slot           Slot
	ServiceDate    string
	ScheduledStart time.Time
	ScheduledEnd   time.Time

	Address  string
	Location *geo.Point

	ProcessingFee money.Amount
	BaseFare      money.Amount
	// TotalFare equals BaseFare plus invoice items unless ManualFare is set
	TotalFare       money.Amount
	ManualFare      bool
	HasInvoice      bool
	ArrivalNotified bool

	StatusReason string
	ExpiryReason ExpiryReason

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	ExpiredAt   *time.Time
}

// IsOwner reports whether accountID requested the booking
func (b *Booking) IsOwner(accountID uuid.UUID) bool {
	return b.UserID == accountID
}

// IsAssigned reports whether accountID is the booked handyman
func (b *Booking) IsAssigned(accountID uuid.UUID) bool {
	return b.HandymanID == accountID
}

// IsParticipant reports whether accountID is the owner or the handyman
func (b *Booking) IsParticipant(accountID uuid.UUID) bool {
	return b.IsOwner(accountID) || b.IsAssigned(accountID)
}

// CreateParams is a booking request
type CreateParams struct {
	UserID      uuid.UUID
	HandymanID  uuid.UUID
	Category    string
	Description string
	Slot        string
	Date        string
	Address     string
	Location    *geo.Point
	BaseFare    money.Amount
	// ProcessingFee overrides the global fare when positive
	ProcessingFee money.Amount
}

// Transition is a compare-and-set status change
type Transition struct {
	BookingID    uuid.UUID
	From         Status
	To           Status
	At           time.Time
	Reason       string
	ExpiryReason ExpiryReason
}

// PayParams settles a completed booking
type PayParams struct {
	BookingID uuid.UUID
	UserID    uuid.UUID
	// PaymentID is generated when zero
	PaymentID uuid.UUID
	// Amount defaults to the booking's total fare when zero
	Amount money.Amount
}

// Payment is the settlement record of a booking
type Payment struct {
	ID         uuid.UUID
	BookingID  uuid.UUID
	UserID     uuid.UUID
	HandymanID uuid.UUID
	Amount     money.Amount
	Status     string
	CreatedAt  time.Time
}

// PayResult is the outcome of a payment
type PayResult struct {
	Booking *Booking
	Payment *Payment
}

// Stats summarises a handyman's jobs
type Stats struct {
	ActiveBookings  int
	CompletedJobs   int
	RemainingPayout money.Amount
	TotalRevenue    money.Amount
}

// Filters narrows booking lists
type Filters struct {
	Status *Status
	Limit  int
}

// EventKind is the type of a lifecycle event
type EventKind string

const (
	EventStatusChanged EventKind = "status_changed"
	EventArrived       EventKind = "arrived"
)

// Event is a booking lifecycle event, consumed by the notification dispatcher
type Event struct {
	ID             uuid.UUID    `json:"id"`
	Kind           EventKind    `json:"kind"`
	BookingID      uuid.UUID    `json:"bookingId"`
	UserID         uuid.UUID    `json:"userId"`
	HandymanID     uuid.UUID    `json:"handymanId"`
	Status         Status       `json:"status"`
	PreviousStatus Status       `json:"previousStatus,omitempty"`
	ExpiryReason   ExpiryReason `json:"expiryReason,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Category       string       `json:"category"`
	Slot           Slot         `json:"slot"`
	ServiceDate    string       `json:"serviceDate"`
	Amount         money.Amount `json:"amount"`
	OccurredAt     time.Time    `json:"occurredAt"`
}

// NewEvent builds an event from the booking state after a change
func NewEvent(kind EventKind, b *Booking, previous Status, at time.Time) Event {
	return Event{
		ID:             uuid.New(),
		Kind:           kind,
		BookingID:      b.ID,
		UserID:         b.UserID,
		HandymanID:     b.HandymanID,
		Status:         b.Status,
		PreviousStatus: previous,
		ExpiryReason:   b.ExpiryReason,
		Reason:         b.StatusReason,
		Category:       b.Category,
		Slot:           b.Slot,
		ServiceDate:    b.ServiceDate,
		Amount:         b.TotalFare,
		OccurredAt:     at,
	}
}
