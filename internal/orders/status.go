package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
)

var (
	ErrUnknownStatus     = errors.New("unsupported order status")
	ErrInvalidTransition = errors.New("order cannot move to the requested status")
)

// transitions lists the statuses each status may move to
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:        {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:      {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing:     {models.StatusOutForDelivery, models.StatusDelivered, models.StatusCancelled},
	models.StatusOutForDelivery: {models.StatusDelivered, models.StatusFailed},
	models.StatusDelivered:      {models.StatusRefunded},
	models.StatusFailed:         {models.StatusRefunded, models.StatusOutForDelivery},
	models.StatusCancelled:      {models.StatusRefunded},
	models.StatusRefunded:       nil,
}

// CanTransition reports whether an order in from may move to to
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Get returns one order
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// UpdateStatus moves an order to a new status if the transition is allowed
func (s *Service) UpdateStatus(ctx context.Context, id string, to models.OrderStatus, actor string) (*models.Order, error) {
	if _, known := transitions[to]; !known {
		return nil, ErrUnknownStatus
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, to)
	}

	updated, err := s.orders.Patch(ctx, id, map[string]string{
		"status":    string(to),
		"updatedBy": actor,
	})
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}

	s.log.Info("order status changed", "order_id", id, "from", order.Status, "to", to, "actor", actor)
	return updated, nil
}
