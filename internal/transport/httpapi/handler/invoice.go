package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/pkg/logger"
	"github.com/kislikjeka/handygo/pkg/money"
)

// InvoiceServiceInterface defines the invoice operations
type InvoiceServiceInterface interface {
	Get(ctx context.Context, bookingID, callerID uuid.UUID) (*invoice.Invoice, error)
	AddItem(ctx context.Context, bookingID, callerID uuid.UUID, in invoice.ItemInput, respectManualFare bool) (*invoice.Invoice, error)
	UpdateItem(ctx context.Context, bookingID, callerID, itemID uuid.UUID, patch invoice.ItemPatch) (*invoice.Invoice, error)
	DeleteItem(ctx context.Context, bookingID, callerID, itemID uuid.UUID) (*invoice.Invoice, error)
	SetManualFare(ctx context.Context, bookingID, callerID uuid.UUID, fare money.Amount, isManual bool) (*invoice.Invoice, error)
	Replace(ctx context.Context, bookingID, callerID uuid.UUID, baseFare money.Amount, items []invoice.ItemInput) (*invoice.Invoice, error)
}

// InvoiceHandler handles invoice requests
type InvoiceHandler struct {
	invoices InvoiceServiceInterface
	logger   *logger.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices InvoiceServiceInterface, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoices: invoices,
		logger:   log.WithComponent("invoice_handler"),
	}
}

// ItemRequest represents a new invoice line
type ItemRequest struct {
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unitPrice"`
}

func (req ItemRequest) input() invoice.ItemInput {
	return invoice.ItemInput{Name: req.Name, Quantity: req.Quantity, UnitPrice: req.UnitPrice}
}

// AddItemRequest represents the add item request
type AddItemRequest struct {
	ItemRequest
	RespectManualFare bool `json:"respectManualFare"`
}

// UpdateItemRequest represents a partial item update
type UpdateItemRequest struct {
	Name      *string       `json:"name"`
	Quantity  *int          `json:"quantity"`
	UnitPrice *money.Amount `json:"unitPrice"`
}

// ReplaceInvoiceRequest represents the full invoice replacement
type ReplaceInvoiceRequest struct {
	BaseFare money.Amount  `json:"baseFare"`
	Items    []ItemRequest `json:"items"`
}

// SetFareRequest represents the manual fare request
type SetFareRequest struct {
	Fare     money.Amount `json:"fare"`
	IsManual bool         `json:"isManual"`
}

// GetInvoice handles GET /bookings/{bookingID}/invoice
func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}

	inv, err := h.invoices.Get(r.Context(), bookingID, id)
	h.respond(w, r, inv, err)
}

// ReplaceInvoice handles PUT /bookings/{bookingID}/invoice
func (h *InvoiceHandler) ReplaceInvoice(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req ReplaceInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	items := make([]invoice.ItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.input()
	}

	inv, err := h.invoices.Replace(r.Context(), bookingID, id, req.BaseFare, items)
	h.respond(w, r, inv, err)
}

// AddItem handles POST /bookings/{bookingID}/invoice/items
func (h *InvoiceHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	inv, err := h.invoices.AddItem(r.Context(), bookingID, id, req.input(), req.RespectManualFare)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

// UpdateItem handles PUT /bookings/{bookingID}/invoice/items/{itemID}
func (h *InvoiceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}
	itemID, err := parseUUID(chi.URLParam(r, "itemID"), "item ID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	inv, err := h.invoices.UpdateItem(r.Context(), bookingID, id, itemID, invoice.ItemPatch{
		Name:      req.Name,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	h.respond(w, r, inv, err)
}

// DeleteItem handles DELETE /bookings/{bookingID}/invoice/items/{itemID}
func (h *InvoiceHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}
	itemID, err := parseUUID(chi.URLParam(r, "itemID"), "item ID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	inv, err := h.invoices.DeleteItem(r.Context(), bookingID, id, itemID)
	h.respond(w, r, inv, err)
}

// SetFare handles PUT /bookings/{bookingID}/invoice/fare
func (h *InvoiceHandler) SetFare(w http.ResponseWriter, r *http.Request) {
	id, bookingID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req SetFareRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	inv, err := h.invoices.SetManualFare(r.Context(), bookingID, id, req.Fare, req.IsManual)
	h.respond(w, r, inv, err)
}

func (h *InvoiceHandler) respond(w http.ResponseWriter, r *http.Request, inv *invoice.Invoice, err error) {
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *InvoiceHandler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
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
