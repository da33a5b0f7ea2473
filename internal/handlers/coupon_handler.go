package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
)

// couponCodePattern is the character set promo codes are printed with
var couponCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,32}$`)

// couponValidator checks promo codes against the loaded coupon bases
type couponValidator interface {
	IsValid(ctx context.Context, code string) bool
	GetStats() map[string]interface{}
}

// CouponHandler lets the terminal check a promo code before it is applied
type CouponHandler struct {
	validator couponValidator
	logger    *slog.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(validator couponValidator, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		validator: validator,
		logger:    logger,
	}
}

// ValidateCoupon handles GET /api/coupon/{couponCode}. The code is matched
// case-insensitively and echoed back in its canonical upper-case form.
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "couponCode")))
	if !couponCodePattern.MatchString(code) {
		WriteError(w, http.StatusBadRequest, "Invalid coupon code format", h.logger)
		return
	}

	if h.validator.IsValid(r.Context(), code) {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"valid":  true,
			"coupon": code,
		}, h.logger)
		return
	}

	h.logger.Debug("coupon rejected", "coupon", code)
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"valid":   false,
		"coupon":  code,
		"message": "Coupon not found or invalid",
	}, h.logger)
}

// GetStats handles GET /api/coupon/stats
func (h *CouponHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.validator.GetStats(), h.logger)
}
