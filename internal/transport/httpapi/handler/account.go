package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/internal/platform/account"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// AccountServiceInterface defines the profile operations
type AccountServiceInterface interface {
	Create(ctx context.Context, p account.CreateParams) (*account.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	RegisterPushToken(ctx context.Context, id uuid.UUID, token string) error
	UpdateBankDetails(ctx context.Context, id uuid.UUID, bank ledger.BankDetails) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

// AccountHandler handles profile requests
type AccountHandler struct {
	accounts AccountServiceInterface
	logger   *logger.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountServiceInterface, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   log.WithComponent("account_handler"),
	}
}

// CreateAccountRequest represents the profile creation request
type CreateAccountRequest struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PushTokenRequest represents a device token registration
type PushTokenRequest struct {
	Token string `json:"token"`
}

// BankDetailsRequest represents the payout account
type BankDetailsRequest struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
}

// AvailabilityRequest toggles new booking intake
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// CreateAccount handles POST /accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	a, err := h.accounts.Create(r.Context(), account.CreateParams{
		ID:    id,
		Role:  account.Role(req.Role),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toAccountResponse(a))
}

// GetMe handles GET /accounts/me
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	a, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toAccountResponse(a))
}

// RegisterPushToken handles POST /accounts/me/push-token
func (h *AccountHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	var req PushTokenRequest
	h.update(w, r, &req, func(ctx context.Context, id uuid.UUID) error {
		return h.accounts.RegisterPushToken(ctx, id, req.Token)
	})
}

// UpdateBankDetails handles PUT /accounts/me/bank
func (h *AccountHandler) UpdateBankDetails(w http.ResponseWriter, r *http.Request) {
	var req BankDetailsRequest
	h.update(w, r, &req, func(ctx context.Context, id uuid.UUID) error {
		return h.accounts.UpdateBankDetails(ctx, id, ledger.BankDetails{
			BankName:      req.BankName,
			AccountNumber: req.AccountNumber,
		})
	})
}

// SetAvailability handles PUT /accounts/me/availability
func (h *AccountHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	h.update(w, r, &req, func(ctx context.Context, id uuid.UUID) error {
		return h.accounts.SetAvailability(ctx, id, req.Available)
	})
}

// update decodes req, applies fn for the caller and returns the fresh profile
func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request, req any, fn func(ctx context.Context, id uuid.UUID) error) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := decodeJSON(r, req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	a, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountResponse(a))
}
