package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/pkg/logger"
)

// loadedValidator writes three small coupon bases and loads them
func loadedValidator(t *testing.T) *coupon.Validator {
	t.Helper()

	dir := t.TempDir()
	bases := [][]string{
		{"HAPPYHRS", "FIFTYOFF", "ONLYONCE"},
		{"HAPPYHRS", "SUPER100"},
		{"FIFTYOFF", "SUPER100"},
	}
	paths := make([]string, len(bases))
	for i, codes := range bases {
		paths[i] = filepath.Join(dir, fmt.Sprintf("coupons%d.txt", i+1))
		require.NoError(t, os.WriteFile(paths[i], []byte(strings.Join(codes, "\n")), 0o600))
	}

	v := coupon.NewValidator(coupon.WithLogger(logger.New("error")))
	require.NoError(t, v.LoadFromFiles(context.Background(), paths))
	return v
}

func couponRouter(h *CouponHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/coupon/stats", h.GetStats)
	r.Get("/api/coupon/{couponCode}", h.ValidateCoupon)
	return r
}

func TestCouponHandler_ValidateCoupon(t *testing.T) {
	r := couponRouter(NewCouponHandler(loadedValidator(t), logger.New("error")))

	tests := []struct {
		name       string
		code       string
		wantStatus int
		wantValid  bool
		wantCoupon string
	}{
		{"in two bases", "HAPPYHRS", http.StatusOK, true, "HAPPYHRS"},
		{"lower case", "fiftyoff", http.StatusOK, true, "FIFTYOFF"},
		{"in one base only", "ONLYONCE", http.StatusNotFound, false, "ONLYONCE"},
		{"too short", "SHORT", http.StatusNotFound, false, "SHORT"},
		{"unknown", "NOTEXIST", http.StatusNotFound, false, "NOTEXIST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(http.MethodGet, "/api/coupon/"+tt.code, nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantValid, resp["valid"])
			assert.Equal(t, tt.wantCoupon, resp["coupon"])
		})
	}
}

func TestCouponHandler_InvalidFormat(t *testing.T) {
	r := couponRouter(NewCouponHandler(loadedValidator(t), logger.New("error")))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/coupon/HAPPY-HRS", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid coupon code format"}`, w.Body.String())
}

func TestCouponHandler_GetStats(t *testing.T) {
	r := couponRouter(NewCouponHandler(loadedValidator(t), logger.New("error")))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/coupon/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		TotalFiles   int      `json:"total_files"`
		FileSizes    []int    `json:"file_sizes"`
		FilePaths    []string `json:"file_paths"`
		TotalCoupons int      `json:"total_coupons"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))

	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, []int{3, 2, 2}, stats.FileSizes)
	assert.Len(t, stats.FilePaths, 3)
	assert.Equal(t, 7, stats.TotalCoupons)
}
