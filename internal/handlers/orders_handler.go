package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/backend"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/export"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/middleware"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/orders"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// OrdersHandler serves the order-status views of the admin console
type OrdersHandler struct {
	orders         *orders.Service
	currencySymbol string
	log            *slog.Logger
	now            func() time.Time
}

// NewOrdersHandler creates a new orders handler
func NewOrdersHandler(svc *orders.Service, currencySymbol string, log *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:         svc,
		currencySymbol: currencySymbol,
		log:            log,
		now:            time.Now,
	}
}

// ListOrders handles GET /api/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.orders.List(r.Context(), r.URL.Query().Get("status"), listParams(r))
	if err != nil {
		h.writeError(w, err, "Failed to load orders")
		return
	}
	WriteJSON(w, http.StatusOK, page, h.log)
}

// ListBuckets handles GET /api/orders/buckets
func (h *OrdersHandler) ListBuckets(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, orders.Buckets, h.log)
}

// Summary handles GET /api/orders/summary
func (h *OrdersHandler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.orders.Summary(r.Context(), listParams(r))
	if err != nil {
		h.writeError(w, err, "Failed to load order summary")
		return
	}
	WriteJSON(w, http.StatusOK, counts, h.log)
}

// GetOrder handles GET /api/orders/{orderId}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderId")
	if !validID.MatchString(id) {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.log)
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to load order")
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}

// UpdateStatusRequest is the body of PATCH /api/orders/{orderId}/status
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateStatus handles PATCH /api/orders/{orderId}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderId")
	if !validID.MatchString(id) {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.log)
		return
	}

	actor := middleware.ActorFromContext(r.Context())
	if actor == "" {
		WriteError(w, http.StatusBadRequest, "Missing "+middleware.ActorHeader+" header", h.log)
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, req.Status, actor)
	if err != nil {
		h.writeError(w, err, "Failed to update order status")
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}

// Export handles GET /api/orders/export. The whole filtered bucket is
// written as CSV (default) or XLSX. An empty result is answered with a
// notice instead of a file.
func (h *OrdersHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		WriteError(w, http.StatusBadRequest, "Unsupported export format", h.log)
		return
	}

	params := listParams(r)
	table, err := h.orders.ExportTable(r.Context(), r.URL.Query().Get("status"), params)
	if err != nil {
		h.writeError(w, err, "Failed to export orders")
		return
	}
	if len(table.Rows) == 0 {
		WriteJSON(w, http.StatusOK, map[string]string{"message": "No data available to export"}, h.log)
		return
	}

	now := h.now().UTC()
	var (
		buf         bytes.Buffer
		filename    string
		contentType string
	)
	switch format {
	case "xlsx":
		filename = export.XLSXFilename(table.Dataset, now)
		contentType = contentTypeXLSX
		err = export.WriteXLSX(&buf, table, export.XLSXOptions{SheetName: "Orders", CurrencySymbol: h.currencySymbol})
	default:
		filter := export.Filter{StartDate: params.StartDate, EndDate: params.EndDate, Search: params.Search}
		filename = export.CSVFilename(table.Dataset, filter, now)
		contentType = contentTypeCSV
		err = export.WriteCSV(&buf, table)
	}
	if err != nil {
		h.log.Error("failed to render export", "format", format, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Error("failed to write export", "error", err)
		return
	}

	h.log.Info("orders exported", "format", format, "rows", len(table.Rows), "filename", filename)
}

func (h *OrdersHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, orders.ErrUnknownBucket):
		WriteError(w, http.StatusBadRequest, "Unknown order status", h.log)
	case errors.Is(err, orders.ErrUnknownStatus):
		WriteError(w, http.StatusBadRequest, "Unsupported order status", h.log)
	case errors.Is(err, orders.ErrInvalidDate):
		WriteError(w, http.StatusBadRequest, "Dates must use the YYYY-MM-DD format", h.log)
	case errors.Is(err, orders.ErrDateRange):
		WriteError(w, http.StatusBadRequest, "Start date must not be after end date", h.log)
	case errors.Is(err, orders.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, err.Error(), h.log)
	case backend.IsNotFound(err):
		WriteError(w, http.StatusNotFound, backend.Message(err, "Order not found"), h.log)
	default:
		WriteBackendError(w, err, fallback, h.log)
	}
}

// listParams reads the list query. Malformed numbers fall back to the
// defaults applied by orders.Normalize.
func listParams(r *http.Request) models.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return models.ListParams{
		Page:      page,
		Limit:     limit,
		Search:    q.Get("search"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}
}
