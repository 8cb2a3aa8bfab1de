package handler

import (
	"time"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/internal/platform/account"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/money"
)

// BookingResponse represents a booking
type BookingResponse struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	HandymanID      string       `json:"handymanId"`
	Category        string       `json:"category"`
	Description     string       `json:"description,omitempty"`
	Status          string       `json:"status"`
	Slot            string       `json:"slot"`
	Date            string       `json:"date"`
	ScheduledStart  string       `json:"scheduledStart"`
	ScheduledEnd    string       `json:"scheduledEnd"`
	Address         string       `json:"address,omitempty"`
	Location        *geo.Point   `json:"location,omitempty"`
	ProcessingFee   money.Amount `json:"processingFee"`
	BaseFare        money.Amount `json:"baseFare"`
	TotalFare       money.Amount `json:"totalFare"`
	ManualFare      bool         `json:"manualFare"`
	HasInvoice      bool         `json:"hasInvoice"`
	ArrivalNotified bool         `json:"arrivalNotified"`
	StatusReason    string       `json:"statusReason,omitempty"`
	ExpiryReason    string       `json:"expiryReason,omitempty"`
	CreatedAt       string       `json:"createdAt"`
	UpdatedAt       string       `json:"updatedAt"`
	CompletedAt     *string      `json:"completedAt,omitempty"`
	CancelledAt     *string      `json:"cancelledAt,omitempty"`
	ExpiredAt       *string      `json:"expiredAt,omitempty"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID.String(),
		UserID:          b.UserID.String(),
		HandymanID:      b.HandymanID.String(),
		Category:        b.Category,
		Description:     b.Description,
		Status:          b.Status.String(),
		Slot:            b.Slot.String(),
		Date:            b.ServiceDate,
		ScheduledStart:  formatTime(b.ScheduledStart),
		ScheduledEnd:    formatTime(b.ScheduledEnd),
		Address:         b.Address,
		Location:        b.Location,
		ProcessingFee:   b.ProcessingFee,
		BaseFare:        b.BaseFare,
		TotalFare:       b.TotalFare,
		ManualFare:      b.ManualFare,
		HasInvoice:      b.HasInvoice,
		ArrivalNotified: b.ArrivalNotified,
		StatusReason:    b.StatusReason,
		ExpiryReason:    string(b.ExpiryReason),
		CreatedAt:       formatTime(b.CreatedAt),
		UpdatedAt:       formatTime(b.UpdatedAt),
		CompletedAt:     formatTimePtr(b.CompletedAt),
		CancelledAt:     formatTimePtr(b.CancelledAt),
		ExpiredAt:       formatTimePtr(b.ExpiredAt),
	}
}

func toBookingResponses(list []*booking.Booking) []BookingResponse {
	out := make([]BookingResponse, len(list))
	for i, b := range list {
		out[i] = toBookingResponse(b)
	}
	return out
}

// PaymentResponse represents a recorded booking payment
type PaymentResponse struct {
	ID         string       `json:"id"`
	BookingID  string       `json:"bookingId"`
	UserID     string       `json:"userId"`
	HandymanID string       `json:"handymanId"`
	Amount     money.Amount `json:"amount"`
	Status     string       `json:"status"`
	CreatedAt  string       `json:"createdAt"`
}

func toPaymentResponse(p *booking.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID.String(),
		BookingID:  p.BookingID.String(),
		UserID:     p.UserID.String(),
		HandymanID: p.HandymanID.String(),
		Amount:     p.Amount,
		Status:     p.Status,
		CreatedAt:  formatTime(p.CreatedAt),
	}
}

// StatsResponse represents a handyman's job summary
type StatsResponse struct {
	ActiveBookings  int          `json:"activeBookings"`
	CompletedJobs   int          `json:"completedJobs"`
	RemainingPayout money.Amount `json:"remainingPayout"`
	TotalRevenue    money.Amount `json:"totalRevenue"`
}

// InvoiceItemResponse represents one invoice line
type InvoiceItemResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unitPrice"`
	Total     money.Amount `json:"total"`
}

// InvoiceResponse represents a booking invoice
type InvoiceResponse struct {
	BookingID  string                `json:"bookingId"`
	BaseFare   money.Amount          `json:"baseFare"`
	Fare       money.Amount          `json:"fare"`
	ManualFare bool                  `json:"manualFare"`
	Items      []InvoiceItemResponse `json:"items"`
	UpdatedAt  string                `json:"updatedAt,omitempty"`
}

func toInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:        item.ID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		}
	}
	resp := InvoiceResponse{
		BookingID:  inv.BookingID.String(),
		BaseFare:   inv.BaseFare,
		Fare:       inv.Fare,
		ManualFare: inv.ManualFare,
		Items:      items,
	}
	if !inv.UpdatedAt.IsZero() {
		resp.UpdatedAt = formatTime(inv.UpdatedAt)
	}
	return resp
}

// TransactionResponse represents a wallet transaction
type TransactionResponse struct {
	ID          string            `json:"id"`
	Amount      money.Amount      `json:"amount"`
	Type        string            `json:"type"`
	Status      string            `json:"status"`
	BookingID   *string           `json:"bookingId,omitempty"`
	Reference   string            `json:"reference,omitempty"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   string            `json:"createdAt"`
}

func toTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          tx.ID.String(),
		Amount:      tx.Amount,
		Type:        string(tx.Type),
		Status:      string(tx.Status),
		Reference:   tx.Reference,
		Description: tx.Description,
		Metadata:    tx.Metadata,
		CreatedAt:   formatTime(tx.CreatedAt),
	}
	if tx.BookingID != nil {
		id := tx.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}

// AccountResponse represents a profile with its wallet balance
type AccountResponse struct {
	ID        string       `json:"id"`
	Role      string       `json:"role"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Balance   money.Amount `json:"balance"`
	HasToken  bool         `json:"hasPushToken"`
	BankName  string       `json:"bankName,omitempty"`
	Location  *geo.Point   `json:"location,omitempty"`
	Available bool         `json:"available"`
	CreatedAt string       `json:"createdAt"`
}

func toAccountResponse(a *account.Account) AccountResponse {
	resp := AccountResponse{
		ID:        a.ID.String(),
		Role:      string(a.Role),
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		Balance:   a.Balance,
		HasToken:  a.PushToken != "",
		Location:  a.Location,
		Available: a.Available,
		CreatedAt: formatTime(a.CreatedAt),
	}
	if a.Bank != nil {
		resp.BankName = a.Bank.BankName
	}
	return resp
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
