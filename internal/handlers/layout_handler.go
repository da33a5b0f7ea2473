package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/config"
)

// LayoutHandler serves the admin shell preferences fixed at startup
type LayoutHandler struct {
	layout config.LayoutConfig
	log    *slog.Logger
}

// NewLayoutHandler creates a handler serving the configured layout
func NewLayoutHandler(layout config.LayoutConfig, log *slog.Logger) *LayoutHandler {
	return &LayoutHandler{layout: layout, log: log}
}

// GetLayout handles GET /api/layout
func (h *LayoutHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.layout, h.log)
}
