package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/ledger"
	apperr "github.com/kislikjeka/handygo/internal/shared/errors"
	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

// WalletServiceInterface defines the wallet ledger operations exposed over HTTP
type WalletServiceInterface interface {
	Balance(ctx context.Context, accountID uuid.UUID) (money.Amount, error)
	History(ctx context.Context, accountID uuid.UUID, limit int) ([]*ledger.Transaction, error)
	TopUp(ctx context.Context, p ledger.TopUpParams) (*ledger.Transaction, error)
	Withdraw(ctx context.Context, p ledger.WithdrawParams) (*ledger.WithdrawResult, error)
	Reconcile(ctx context.Context, accountID uuid.UUID) (*ledger.Reconciliation, error)
}

// WalletHandler handles wallet requests
type WalletHandler struct {
	wallet WalletServiceInterface
	logger *logger.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(wallet WalletServiceInterface, log *logger.Logger) *WalletHandler {
	return &WalletHandler{
		wallet: wallet,
		logger: log.WithComponent("wallet_handler"),
	}
}

// BalanceResponse represents a wallet balance
type BalanceResponse struct {
	AccountID string       `json:"accountId"`
	Balance   money.Amount `json:"balance"`
}

// TopUpRequest represents a confirmed gateway payment
type TopUpRequest struct {
	Amount    money.Amount `json:"amount"`
	Reference string       `json:"reference"`
}

// WithdrawRequest represents a payout request
type WithdrawRequest struct {
	Amount money.Amount `json:"amount"`
}

// WithdrawResponse represents a pending withdrawal
type WithdrawResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	NewBalance  money.Amount        `json:"newBalance"`
}

// ReconcileResponse compares the cached balance with the ledger
type ReconcileResponse struct {
	AccountID     string       `json:"accountId"`
	CachedBalance money.Amount `json:"cachedBalance"`
	LedgerBalance money.Amount `json:"ledgerBalance"`
	Balanced      bool         `json:"balanced"`
}

// GetBalance handles GET /wallet
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	balance, err := h.wallet.Balance(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, BalanceResponse{AccountID: id.String(), Balance: balance})
}

// GetTransactions handles GET /wallet/transactions?limit=
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
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

	txs, err := h.wallet.History(r.Context(), id, limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	out := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	respondJSON(w, http.StatusOK, out)
}

// TopUp handles POST /wallet/top-up
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req TopUpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	tx, err := h.wallet.TopUp(r.Context(), ledger.TopUpParams{
		AccountID: id,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// Withdraw handles POST /wallet/withdraw
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req WithdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	res, err := h.wallet.Withdraw(r.Context(), ledger.WithdrawParams{AccountID: id, Amount: req.Amount})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, WithdrawResponse{
		Transaction: toTransactionResponse(res.Transaction),
		NewBalance:  res.NewBalance,
	})
}

// Reconcile handles GET /wallet/reconcile
func (h *WalletHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	rec, err := h.wallet.Reconcile(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, ReconcileResponse{
		AccountID:     rec.AccountID.String(),
		CachedBalance: rec.CachedBalance,
		LedgerBalance: rec.LedgerBalance,
		Balanced:      rec.Balanced(),
	})
}
