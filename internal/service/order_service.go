package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/cart"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
)

var (
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrMissingActor            = errors.New("order must be placed by an identified operator")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrDiscountExceedsSubtotal = errors.New("discount must not exceed the subtotal")
	ErrInvalidCoupon           = errors.New("coupon code is not valid")
)

// CouponValidator checks promo codes entered at the terminal
type CouponValidator interface {
	IsValid(ctx context.Context, code string) bool
}

// OrderCreator stores a new order in the backend
type OrderCreator interface {
	Create(ctx context.Context, body any) (*models.Order, error)
}

// Submission is a draft ready to be placed as an order
type Submission struct {
	Draft      cart.Draft
	Actor      string
	CouponCode string
}

// OrderService turns POS drafts into backend orders
type OrderService struct {
	orders          OrderCreator
	couponValidator CouponValidator
	now             func() time.Time
}

// NewOrderService creates a new order service. couponValidator may be nil,
// in which case coupon codes are passed through unchecked.
func NewOrderService(orders OrderCreator, couponValidator CouponValidator) *OrderService {
	return &OrderService{
		orders:          orders,
		couponValidator: couponValidator,
		now:             time.Now,
	}
}

// Validate runs the local checks a draft must pass before it is sent
func (s *OrderService) Validate(ctx context.Context, sub Submission) error {
	if sub.Draft.Len() == 0 {
		return ErrEmptyOrder
	}
	if strings.TrimSpace(sub.Actor) == "" {
		return ErrMissingActor
	}
	for _, l := range sub.Draft.Lines {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if cart.ComputeTotals(sub.Draft).Taxable.IsNegative() {
		return ErrDiscountExceedsSubtotal
	}
	if code := strings.TrimSpace(sub.CouponCode); code != "" && s.couponValidator != nil {
		if !s.couponValidator.IsValid(ctx, code) {
			return ErrInvalidCoupon
		}
	}
	return nil
}

// Submit validates the draft, prices it and creates the order in the backend
func (s *OrderService) Submit(ctx context.Context, sub Submission) (*models.Order, error) {
	if err := s.Validate(ctx, sub); err != nil {
		return nil, err
	}

	order := s.buildOrder(sub)
	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// some backends answer 201 with an empty body
	if created == nil || created.ID == "" {
		return order, nil
	}
	return created, nil
}

func (s *OrderService) buildOrder(sub Submission) *models.Order {
	d := sub.Draft
	totals := cart.ComputeTotals(d)

	lines := make([]models.OrderLine, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = models.OrderLine{
			ItemID:    l.ItemID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.Amount(),
		}
	}

	customer := d.Customer
	if customer.ID == "" {
		customer = cart.WalkIn
	}

	return &models.Order{
		ID:             generateOrderID(),
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		Status:         models.StatusPending,
		OrderType:      string(d.OrderType),
		Items:          lines,
		Subtotal:       totals.Subtotal,
		Discount:       totals.Discount,
		Tax:            totals.Tax,
		DeliveryCharge: totals.DeliveryCharge,
		Total:          totals.Total,
		CouponCode:     strings.ToUpper(strings.TrimSpace(sub.CouponCode)),
		CreatedBy:      strings.TrimSpace(sub.Actor),
		CreatedAt:      s.now().UTC(),
	}
}

// generateOrderID generates a unique order ID using UUID
func generateOrderID() string {
	return uuid.New().String()
}
