package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/platform/rating"
	apperr "github.com/kislikjeka/handygo/internal/shared/errors"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// RatingServiceInterface defines the handyman rating operations
type RatingServiceInterface interface {
	Submit(ctx context.Context, p rating.SubmitParams) (*rating.SubmitResult, error)
	ForBooking(ctx context.Context, bookingID uuid.UUID) (*rating.Rating, error)
	ForHandyman(ctx context.Context, handymanID uuid.UUID, limit int) ([]*rating.Rating, *rating.Summary, error)
}

// RatingHandler handles rating requests
type RatingHandler struct {
	ratings RatingServiceInterface
	logger  *logger.Logger
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratings RatingServiceInterface, log *logger.Logger) *RatingHandler {
	return &RatingHandler{
		ratings: ratings,
		logger:  log.WithComponent("rating_handler"),
	}
}

// SubmitRatingRequest represents a customer's score for a booking
type SubmitRatingRequest struct {
	Rating   int    `json:"rating"`
	Review   string `json:"review"`
	UserName string `json:"userName"`
}

// RatingResponse represents one rating
type RatingResponse struct {
	BookingID  string    `json:"bookingId"`
	HandymanID string    `json:"handymanId"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Rating     int       `json:"rating"`
	Review     string    `json:"review"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RatingSummaryResponse represents a handyman's aggregate
type RatingSummaryResponse struct {
	HandymanID    string  `json:"handymanId"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

// SubmitRatingResponse is the stored rating with the new aggregate
type SubmitRatingResponse struct {
	Rating  RatingResponse        `json:"rating"`
	Summary RatingSummaryResponse `json:"summary"`
	Updated bool                  `json:"updated"`
}

// HandymanRatingsResponse lists a handyman's newest ratings
type HandymanRatingsResponse struct {
	Summary RatingSummaryResponse `json:"summary"`
	Ratings []RatingResponse      `json:"ratings"`
}

// SubmitRating handles POST /bookings/{bookingID}/rating.
// A first rating answers 201, a replacement 200.
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	bookingID, err := parseUUID(chi.URLParam(r, "bookingID"), "booking ID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req SubmitRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	res, err := h.ratings.Submit(r.Context(), rating.SubmitParams{
		BookingID: bookingID,
		UserID:    id,
		UserName:  req.UserName,
		Score:     req.Rating,
		Review:    req.Review,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if res.Updated {
		status = http.StatusOK
	}
	respondJSON(w, status, SubmitRatingResponse{
		Rating:  toRatingResponse(res.Rating),
		Summary: toRatingSummaryResponse(res.Summary),
		Updated: res.Updated,
	})
}

// GetBookingRating handles GET /bookings/{bookingID}/rating
func (h *RatingHandler) GetBookingRating(w http.ResponseWriter, r *http.Request) {
	bookingID, err := parseUUID(chi.URLParam(r, "bookingID"), "booking ID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	rt, err := h.ratings.ForBooking(r.Context(), bookingID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toRatingResponse(rt))
}

// GetHandymanRatings handles GET /handymen/{handymanID}/ratings?limit=
func (h *RatingHandler) GetHandymanRatings(w http.ResponseWriter, r *http.Request) {
	handymanID, err := parseUUID(chi.URLParam(r, "handymanID"), "handyman ID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 0 {
			respondError(w, r, h.logger, apperr.Validation("limit must be a non-negative integer"))
			return
		}
	}

	ratings, summary, err := h.ratings.ForHandyman(r.Context(), handymanID, limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	out := make([]RatingResponse, len(ratings))
	for i, rt := range ratings {
		out[i] = toRatingResponse(rt)
	}
	respondJSON(w, http.StatusOK, HandymanRatingsResponse{
		Summary: toRatingSummaryResponse(summary),
		Ratings: out,
	})
}

func toRatingResponse(rt *rating.Rating) RatingResponse {
	return RatingResponse{
		BookingID:  rt.BookingID.String(),
		HandymanID: rt.HandymanID.String(),
		UserID:     rt.UserID.String(),
		UserName:   rt.UserName,
		Rating:     rt.Score,
		Review:     rt.Review,
		CreatedAt:  rt.CreatedAt,
		UpdatedAt:  rt.UpdatedAt,
	}
}

func toRatingSummaryResponse(s *rating.Summary) RatingSummaryResponse {
	return RatingSummaryResponse{
		HandymanID:    s.HandymanID.String(),
		AverageRating: s.Average.InexactFloat64(),
		TotalRatings:  s.Total,
	}
}
