package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/booking"
	apperr "github.com/kislikjeka/handygo/internal/shared/errors"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

// BookingServiceInterface defines the booking lifecycle operations
type BookingServiceInterface interface {
	Create(ctx context.Context, p booking.CreateParams) (*booking.Booking, error)
	Get(ctx context.Context, id, callerID uuid.UUID) (*booking.Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filters booking.Filters) ([]*booking.Booking, error)
	ListForHandyman(ctx context.Context, handymanID uuid.UUID, filters booking.Filters) ([]*booking.Booking, error)
	BookedSlots(ctx context.Context, handymanID uuid.UUID, date string) ([]booking.Slot, error)
	HandymanStats(ctx context.Context, handymanID uuid.UUID) (*booking.Stats, error)
	Accept(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error)
	Reject(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error)
	Start(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error)
	Complete(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error)
	Cancel(ctx context.Context, id, userID uuid.UUID, reason string) (*booking.Booking, error)
	Pay(ctx context.Context, p booking.PayParams) (*booking.PayResult, error)
}

// ArrivalServiceInterface defines handyman location reporting
type ArrivalServiceInterface interface {
	ReportLocation(ctx context.Context, handymanID uuid.UUID, p geo.Point) (*booking.ArrivalReport, error)
}

// BookingHandler handles booking and handyman job requests
type BookingHandler struct {
	bookings BookingServiceInterface
	arrival  ArrivalServiceInterface
	logger   *logger.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings BookingServiceInterface, arrival ArrivalServiceInterface, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		arrival:  arrival,
		logger:   log.WithComponent("booking_handler"),
	}
}

// CreateBookingRequest represents the booking creation request
type CreateBookingRequest struct {
	HandymanID    string       `json:"handymanId"`
	Category      string       `json:"category"`
	Description   string       `json:"description"`
	Slot          string       `json:"slot"`
	Date          string       `json:"date"`
	Address       string       `json:"address"`
	Location      *geo.Point   `json:"location"`
	BaseFare      money.Amount `json:"baseFare"`
	ProcessingFee money.Amount `json:"processingFee"`
}

// CancelBookingRequest represents the cancellation request
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// PayBookingRequest represents the payment request
type PayBookingRequest struct {
	PaymentID string       `json:"paymentId"`
	Amount    money.Amount `json:"amount"`
}

// PayBookingResponse represents a settled booking
type PayBookingResponse struct {
	Booking BookingResponse `json:"booking"`
	Payment PaymentResponse `json:"payment"`
}

// LocationRequest represents a handyman position update
type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SlotsResponse lists the slots a handyman already holds on a date
type SlotsResponse struct {
	HandymanID  string   `json:"handymanId"`
	Date        string   `json:"date"`
	BookedSlots []string `json:"bookedSlots"`
}

// CreateBooking handles POST /bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var handymanID uuid.UUID
	if req.HandymanID != "" {
		if handymanID, err = parseUUID(req.HandymanID, "handyman ID"); err != nil {
			respondError(w, r, h.logger, err)
			return
		}
	}

	b, err := h.bookings.Create(r.Context(), booking.CreateParams{
		UserID:        userID,
		HandymanID:    handymanID,
		Category:      req.Category,
		Description:   req.Description,
		Slot:          req.Slot,
		Date:          req.Date,
		Address:       req.Address,
		Location:      req.Location,
		BaseFare:      req.BaseFare,
		ProcessingFee: req.ProcessingFee,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toBookingResponse(b))
}

// ListBookings handles GET /bookings
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.bookings.ListForUser)
}

// ListJobs handles GET /handymen/me/jobs
func (h *BookingHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.bookings.ListForHandyman)
}

type listFunc func(ctx context.Context, id uuid.UUID, filters booking.Filters) ([]*booking.Booking, error)

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request, fn listFunc) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	list, err := fn(r.Context(), id, filters)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponses(list))
}

// GetBooking handles GET /bookings/{bookingID}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}

	b, err := h.bookings.Get(r.Context(), bookingID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponse(b))
}

// AcceptBooking handles POST /bookings/{bookingID}/accept
func (h *BookingHandler) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Accept)
}

// RejectBooking handles POST /bookings/{bookingID}/reject
func (h *BookingHandler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Reject)
}

// StartBooking handles POST /bookings/{bookingID}/start
func (h *BookingHandler) StartBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Start)
}

// CompleteBooking handles POST /bookings/{bookingID}/complete
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.Complete)
}

type transitionFunc func(ctx context.Context, id, handymanID uuid.UUID) (*booking.Booking, error)

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}

	b, err := fn(r.Context(), bookingID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponse(b))
}

// CancelBooking handles POST /bookings/{bookingID}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req CancelBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	b, err := h.bookings.Cancel(r.Context(), bookingID, id, req.Reason)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toBookingResponse(b))
}

// PayBooking handles POST /bookings/{bookingID}/pay
func (h *BookingHandler) PayBooking(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req PayBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	params := booking.PayParams{BookingID: bookingID, UserID: id, Amount: req.Amount}
	if req.PaymentID != "" {
		paymentID, err := parseUUID(req.PaymentID, "payment ID")
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		params.PaymentID = paymentID
	}

	res, err := h.bookings.Pay(r.Context(), params)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, PayBookingResponse{
		Booking: toBookingResponse(res.Booking),
		Payment: toPaymentResponse(res.Payment),
	})
}

// GetBookedSlots handles GET /handymen/{handymanID}/slots?date=
func (h *BookingHandler) GetBookedSlots(w http.ResponseWriter, r *http.Request) {
	handymanID, err := parseUUID(chi.URLParam(r, "handymanID"), "handyman ID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	date := r.URL.Query().Get("date")
	slots, err := h.bookings.BookedSlots(r.Context(), handymanID, date)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.String()
	}
	respondJSON(w, http.StatusOK, SlotsResponse{
		HandymanID:  handymanID.String(),
		Date:        date,
		BookedSlots: names,
	})
}

// GetStats handles GET /handymen/me/stats
func (h *BookingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	stats, err := h.bookings.HandymanStats(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		ActiveBookings:  stats.ActiveBookings,
		CompletedJobs:   stats.CompletedJobs,
		RemainingPayout: stats.RemainingPayout,
		TotalRevenue:    stats.TotalRevenue,
	})
}

// ReportLocation handles POST /handymen/me/location
func (h *BookingHandler) ReportLocation(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req LocationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	report, err := h.arrival.ReportLocation(r.Context(), id, geo.Point{Latitude: req.Latitude, Longitude: req.Longitude})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// ids returns the caller and the booking path parameter, writing the error
// response when either is missing
func (h *BookingHandler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return uuid.Nil, uuid.Nil, false
	}
	bookingID, err := parseUUID(chi.URLParam(r, "bookingID"), "booking ID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return uuid.Nil, uuid.Nil, false
	}
	return id, bookingID, true
}

// parseFilters reads the optional status and limit query parameters
func parseFilters(r *http.Request) (booking.Filters, error) {
	var filters booking.Filters
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status, err := booking.ParseStatus(s)
		if err != nil {
			return filters, err
		}
		filters.Status = &status
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 0 {
			return filters, apperr.Validation("limit must be a non-negative integer")
		}
		filters.Limit = limit
	}

	return filters, nil
}
