package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/cart"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/middleware"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/pos"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/service"
)

// POSHandler exposes the point-of-sale sessions
type POSHandler struct {
	terminal *pos.Terminal
	log      *slog.Logger
}

// NewPOSHandler creates a new POS handler
func NewPOSHandler(terminal *pos.Terminal, log *slog.Logger) *POSHandler {
	return &POSHandler{terminal: terminal, log: log}
}

// AddItemRequest is the body of POST /api/pos/sessions/{sessionId}/items
type AddItemRequest struct {
	ProductID string `json:"productId"`
}

// UpdateQuantityRequest is the body of PATCH /api/pos/sessions/{sessionId}/items/{itemId}
type UpdateQuantityRequest struct {
	Delta int `json:"delta"`
}

// OpenSession handles POST /api/pos/sessions
func (h *POSHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusCreated, h.terminal.Open(), h.log)
}

// GetSession handles GET /api/pos/sessions/{sessionId}
func (h *POSHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.terminal.Get(chi.URLParam(r, "sessionId"))
	h.respond(w, snap, err)
}

// CloseSession handles DELETE /api/pos/sessions/{sessionId}
func (h *POSHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.terminal.Close(chi.URLParam(r, "sessionId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/pos/sessions/{sessionId}/items
func (h *POSHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeJSON(r, &req); err != nil || !validID.MatchString(req.ProductID) {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	snap, err := h.terminal.AddItem(r.Context(), chi.URLParam(r, "sessionId"), req.ProductID)
	h.respond(w, snap, err)
}

// UpdateQuantity handles PATCH /api/pos/sessions/{sessionId}/items/{itemId}
func (h *POSHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	snap, err := h.terminal.UpdateQuantity(chi.URLParam(r, "sessionId"), chi.URLParam(r, "itemId"), req.Delta)
	h.respond(w, snap, err)
}

// RemoveItem handles DELETE /api/pos/sessions/{sessionId}/items/{itemId}
func (h *POSHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	snap, err := h.terminal.RemoveItem(chi.URLParam(r, "sessionId"), chi.URLParam(r, "itemId"))
	h.respond(w, snap, err)
}

// Configure handles PUT /api/pos/sessions/{sessionId}/settings
func (h *POSHandler) Configure(w http.ResponseWriter, r *http.Request) {
	var settings pos.Settings
	if err := decodeJSON(r, &settings); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	snap, err := h.terminal.Configure(chi.URLParam(r, "sessionId"), settings)
	h.respond(w, snap, err)
}

// Reset handles POST /api/pos/sessions/{sessionId}/reset
func (h *POSHandler) Reset(w http.ResponseWriter, r *http.Request) {
	snap, err := h.terminal.Reset(chi.URLParam(r, "sessionId"))
	h.respond(w, snap, err)
}

// Submit handles POST /api/pos/sessions/{sessionId}/submit. The operator
// is taken from the X-Actor-ID header.
func (h *POSHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")

	order, err := h.terminal.Submit(r.Context(), id, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, order, h.log)
}

func (h *POSHandler) respond(w http.ResponseWriter, snap pos.Snapshot, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap, h.log)
}

func (h *POSHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pos.ErrSessionNotFound):
		WriteError(w, http.StatusNotFound, "Session not found", h.log)
	case errors.Is(err, repository.ErrProductNotFound):
		WriteError(w, http.StatusNotFound, "Product not found", h.log)
	case errors.Is(err, pos.ErrSubmissionInFlight),
		errors.Is(err, pos.ErrSubmissionAbandoned):
		WriteError(w, http.StatusConflict, capitalize(err.Error()), h.log)
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrMissingActor),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrDiscountExceedsSubtotal),
		errors.Is(err, service.ErrInvalidCoupon),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, cart.ErrNegativeAmount),
		errors.Is(err, cart.ErrInvalidOrderType):
		WriteError(w, http.StatusBadRequest, capitalize(err.Error()), h.log)
	default:
		WriteBackendError(w, err, "Failed to place order", h.log)
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
