package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/middleware"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/pos"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/service"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/pkg/logger"
)

type orderCreatorFunc func(ctx context.Context, body any) (*models.Order, error)

func (f orderCreatorFunc) Create(ctx context.Context, body any) (*models.Order, error) {
	return f(ctx, body)
}

// couponStub accepts exactly the listed codes
type couponStub map[string]bool

func (s couponStub) IsValid(_ context.Context, code string) bool {
	return s[code]
}

func newPOSRouter(t *testing.T, creator service.OrderCreator) chi.Router {
	t.Helper()
	log := logger.New("error")

	products := service.NewProductService(repository.NewInMemoryProductRepository())
	orders := service.NewOrderService(creator, couponStub{"HAPPYHRS": true})
	terminal := pos.NewTerminal(pos.Options{TaxRate: decimal.RequireFromString("0.05")}, products, orders, log)
	handler := NewPOSHandler(terminal, log)

	r := chi.NewRouter()
	r.Use(middleware.Actor)
	r.Route("/api/pos/sessions", func(r chi.Router) {
		r.Post("/", handler.OpenSession)
		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/", handler.GetSession)
			r.Delete("/", handler.CloseSession)
			r.Post("/items", handler.AddItem)
			r.Patch("/items/{itemId}", handler.UpdateQuantity)
			r.Delete("/items/{itemId}", handler.RemoveItem)
			r.Put("/settings", handler.Configure)
			r.Post("/reset", handler.Reset)
			r.Post("/submit", handler.Submit)
		})
	})
	return r
}

func echoCreator() service.OrderCreator {
	return orderCreatorFunc(func(_ context.Context, body any) (*models.Order, error) {
		return body.(*models.Order), nil
	})
}

func doJSON(t *testing.T, r http.Handler, method, path, body, actor string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}

	w := serve(r, req)
	var resp map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func openSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/pos/sessions/", "", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	return resp["id"].(string)
}

func TestPOS_CartFlow(t *testing.T) {
	r := newPOSRouter(t, echoCreator())
	base := "/api/pos/sessions/" + openSession(t, r)

	// Chicken Waffle 12.99 twice, Caesar Salad 8.99 once
	for _, id := range []string{"1", "1", "4"} {
		w, _ := doJSON(t, r, http.MethodPost, base+"/items", `{"productId":"`+id+`"}`, "")
		if w.Code != http.StatusOK {
			t.Fatalf("add item %s: expected status 200, got %d", id, w.Code)
		}
	}

	w, resp := doJSON(t, r, http.MethodPatch, base+"/items/4", `{"delta":1}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	totals := resp["totals"].(map[string]any)
	// 2 x 12.99 + 2 x 8.99 = 43.96, tax 2.20
	if totals["subtotal"] != "43.96" || totals["total"] != "46.16" {
		t.Errorf("unexpected totals: %v", totals)
	}

	w, resp = doJSON(t, r, http.MethodPut, base+"/settings",
		`{"orderType":"home_delivery","deliveryCharge":"5","extraDiscount":"3.96","customer":{"id":"c-1","name":"Ada"}}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %v", w.Code, resp)
	}
	totals = resp["totals"].(map[string]any)
	// taxable 40, tax 2, delivery 5
	if totals["total"] != "47" {
		t.Errorf("expected total 47, got %v", totals["total"])
	}

	w, resp = doJSON(t, r, http.MethodDelete, base+"/items/1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	lines := resp["draft"].(map[string]any)["lines"].([]any)
	if len(lines) != 1 {
		t.Errorf("expected one line left, got %d", len(lines))
	}

	w, resp = doJSON(t, r, http.MethodPost, base+"/reset", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if lines := resp["draft"].(map[string]any)["lines"].([]any); len(lines) != 0 {
		t.Errorf("expected empty draft after reset, got %d lines", len(lines))
	}
}

func TestPOS_Submit(t *testing.T) {
	var placed *models.Order
	r := newPOSRouter(t, orderCreatorFunc(func(_ context.Context, body any) (*models.Order, error) {
		placed = body.(*models.Order)
		return placed, nil
	}))
	id := openSession(t, r)
	base := "/api/pos/sessions/" + id

	w, resp := doJSON(t, r, http.MethodPost, base+"/submit", "", "cashier-1")
	if w.Code != http.StatusBadRequest || resp["error"] != "Order must contain at least one item" {
		t.Errorf("empty draft: got %d %v", w.Code, resp)
	}

	doJSON(t, r, http.MethodPost, base+"/items", `{"productId":"7"}`, "")

	w, resp = doJSON(t, r, http.MethodPost, base+"/submit", "", "")
	if w.Code != http.StatusBadRequest || resp["error"] != "Order must be placed by an identified operator" {
		t.Errorf("missing actor: got %d %v", w.Code, resp)
	}

	doJSON(t, r, http.MethodPut, base+"/settings", `{"couponCode":"nope1234"}`, "")
	w, _ = doJSON(t, r, http.MethodPost, base+"/submit", "", "cashier-1")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid coupon: expected status 400, got %d", w.Code)
	}

	doJSON(t, r, http.MethodPut, base+"/settings", `{"couponCode":"happyhrs"}`, "")
	w, resp = doJSON(t, r, http.MethodPost, base+"/submit", "", "cashier-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %v", w.Code, resp)
	}
	if placed == nil || placed.CreatedBy != "cashier-1" || placed.CouponCode != "HAPPYHRS" {
		t.Errorf("unexpected order sent to backend: %+v", placed)
	}

	_, resp = doJSON(t, r, http.MethodGet, base, "", "")
	if lines := resp["draft"].(map[string]any)["lines"].([]any); len(lines) != 0 {
		t.Error("draft is cleared after a successful submission")
	}
}

func TestPOS_Errors(t *testing.T) {
	r := newPOSRouter(t, echoCreator())
	base := "/api/pos/sessions/" + openSession(t, r)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"unknown session", http.MethodGet, "/api/pos/sessions/nope", "", http.StatusNotFound},
		{"unknown product", http.MethodPost, base + "/items", `{"productId":"404"}`, http.StatusNotFound},
		{"invalid product id", http.MethodPost, base + "/items", `{"productId":""}`, http.StatusBadRequest},
		{"malformed body", http.MethodPatch, base + "/items/1", `{"delta":"x"}`, http.StatusBadRequest},
		{"bad order type", http.MethodPut, base + "/settings", `{"orderType":"drone"}`, http.StatusBadRequest},
		{"negative delivery charge", http.MethodPut, base + "/settings", `{"deliveryCharge":"-1"}`, http.StatusBadRequest},
		{"unknown setting", http.MethodPut, base + "/settings", `{"tip":"1"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, r, tt.method, tt.path, tt.body, "")
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestPOS_SubmitInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := newPOSRouter(t, orderCreatorFunc(func(ctx context.Context, body any) (*models.Order, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return body.(*models.Order), nil
	}))
	base := "/api/pos/sessions/" + openSession(t, r)
	doJSON(t, r, http.MethodPost, base+"/items", `{"productId":"1"}`, "")

	done := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, base+"/submit", nil)
		req.Header.Set(middleware.ActorHeader, "cashier-1")
		done <- serve(r, req).Code
	}()
	<-started

	w, _ := doJSON(t, r, http.MethodPost, base+"/submit", "", "cashier-1")
	if w.Code != http.StatusConflict {
		t.Errorf("second submit: expected status 409, got %d", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodPost, base+"/items", `{"productId":"2"}`, "")
	if w.Code != http.StatusConflict {
		t.Errorf("edit during submit: expected status 409, got %d", w.Code)
	}

	close(release)
	if code := <-done; code != http.StatusCreated {
		t.Errorf("first submit: expected status 201, got %d", code)
	}
}

func TestPOS_CloseSession(t *testing.T) {
	r := newPOSRouter(t, echoCreator())
	base := "/api/pos/sessions/" + openSession(t, r)

	w, _ := doJSON(t, r, http.MethodDelete, base, "", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodDelete, base, "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
