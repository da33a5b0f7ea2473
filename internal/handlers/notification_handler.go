package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
)

// latestOrderSource is the poller's view of the newest order
type latestOrderSource interface {
	Latest() (models.Order, bool)
}

// NotificationHandler exposes the latest order seen by the poller
type NotificationHandler struct {
	source latestOrderSource
	log    *slog.Logger
}

// NewNotificationHandler creates a handler. A nil source reports polling as disabled.
func NewNotificationHandler(source latestOrderSource, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{source: source, log: log}
}

// LatestOrder handles GET /api/notifications/latest
func (h *NotificationHandler) LatestOrder(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		WriteJSON(w, http.StatusOK, map[string]string{"message": "Order notifications are disabled"}, h.log)
		return
	}

	order, ok := h.source.Latest()
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]string{"message": "No orders observed yet"}, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}
