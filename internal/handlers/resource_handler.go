package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/backend"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/middleware"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/orders"
)

// ResourceStore is the backend contract of one managed collection
type ResourceStore[T any] interface {
	List(ctx context.Context, params models.ListParams) (*models.Page[T], error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, body any) (*T, error)
	Update(ctx context.Context, id string, body any) (*T, error)
	Patch(ctx context.Context, id string, body any) (*T, error)
	Delete(ctx context.Context, id string) error
}

// ResourceHandler proxies list and CRUD requests for one collection such as
// customers, banners or coupons to the backend.
type ResourceHandler[T any] struct {
	store ResourceStore[T]
	name  string
	log   *slog.Logger
}

// NewResourceHandler creates a handler for the collection; name is used in
// error messages ("Customer not found").
func NewResourceHandler[T any](store ResourceStore[T], name string, log *slog.Logger) *ResourceHandler[T] {
	return &ResourceHandler[T]{store: store, name: name, log: log}
}

// Routes registers the collection endpoints on r
func (h *ResourceHandler[T]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}", h.Patch)
	r.Delete("/{id}", h.Delete)
}

// List handles GET with the shared page, limit, search and date filter
func (h *ResourceHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	params, err := orders.Normalize(listParams(r))
	if err != nil {
		if errors.Is(err, orders.ErrDateRange) {
			WriteError(w, http.StatusBadRequest, "Start date must not be after end date", h.log)
			return
		}
		WriteError(w, http.StatusBadRequest, "Dates must use the YYYY-MM-DD format", h.log)
		return
	}

	page, err := h.store.List(r.Context(), params)
	if err != nil {
		WriteBackendError(w, err, "Failed to load "+h.name+" list", h.log)
		return
	}
	WriteJSON(w, http.StatusOK, page, h.log)
}

// Get handles GET /{id}
func (h *ResourceHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to load "+h.name)
		return
	}
	WriteJSON(w, http.StatusOK, item, h.log)
}

// Create handles POST / and responds with 201
func (h *ResourceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	var body T
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	item, err := h.store.Create(r.Context(), body)
	if err != nil {
		h.writeError(w, err, "Failed to create "+h.name)
		return
	}
	h.log.Info(h.name+" created", "actor", middleware.ActorFromContext(r.Context()))
	WriteJSON(w, http.StatusCreated, item, h.log)
}

// Update replaces the record
func (h *ResourceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var body T
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	item, err := h.store.Update(r.Context(), id, body)
	if err != nil {
		h.writeError(w, err, "Failed to update "+h.name)
		return
	}
	h.log.Info(h.name+" updated", "id", id, "actor", middleware.ActorFromContext(r.Context()))
	WriteJSON(w, http.StatusOK, item, h.log)
}

// Patch sends a partial update; only the fields present in the body change
func (h *ResourceHandler[T]) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var body map[string]any
	if err := decodeJSON(r, &body); err != nil || len(body) == 0 {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	item, err := h.store.Patch(r.Context(), id, body)
	if err != nil {
		h.writeError(w, err, "Failed to update "+h.name)
		return
	}
	h.log.Info(h.name+" patched", "id", id, "actor", middleware.ActorFromContext(r.Context()))
	WriteJSON(w, http.StatusOK, item, h.log)
}

// Delete handles DELETE /{id}
func (h *ResourceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "Failed to delete "+h.name)
		return
	}
	h.log.Info(h.name+" deleted", "id", id, "actor", middleware.ActorFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ResourceHandler[T]) id(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validID.MatchString(id) {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.log)
		return "", false
	}
	return id, true
}

func (h *ResourceHandler[T]) writeError(w http.ResponseWriter, err error, fallback string) {
	if backend.IsNotFound(err) {
		WriteError(w, http.StatusNotFound, capitalize(h.name)+" not found", h.log)
		return
	}
	WriteBackendError(w, err, fallback, h.log)
}
