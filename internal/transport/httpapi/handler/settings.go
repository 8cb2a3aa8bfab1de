package handler

import (
	"context"
	"net/http"

	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

// FareServiceInterface defines the global fare setting
type FareServiceInterface interface {
	Fare(ctx context.Context) (money.Amount, error)
	SetFare(ctx context.Context, fare money.Amount) error
}

// SettingsHandler handles platform setting requests
type SettingsHandler struct {
	fares  FareServiceInterface
	logger *logger.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(fares FareServiceInterface, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		fares:  fares,
		logger: log.WithComponent("settings_handler"),
	}
}

// FareResponse represents the global booking fare
type FareResponse struct {
	Fare money.Amount `json:"fare"`
}

// GetFare handles GET /settings/fare
func (h *SettingsHandler) GetFare(w http.ResponseWriter, r *http.Request) {
	fare, err := h.fares.Fare(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, FareResponse{Fare: fare})
}

// SetFare handles PUT /settings/fare
func (h *SettingsHandler) SetFare(w http.ResponseWriter, r *http.Request) {
	var req FareResponse
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.fares.SetFare(r.Context(), req.Fare); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, FareResponse{Fare: req.Fare})
}
