// Package pos keeps the open point-of-sale sessions. Each session owns one
// draft order and at most one in-flight submission.
package pos

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/cart"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/service"
)

var (
	ErrSessionNotFound     = errors.New("pos session not found")
	ErrSubmissionInFlight  = errors.New("an order submission is already in progress")
	ErrSubmissionAbandoned = errors.New("order submission was abandoned by a reset")
)

// Catalog resolves product IDs to cart items
type Catalog interface {
	CartItem(ctx context.Context, id string) (cart.Item, error)
}

// Submitter places a draft as an order
type Submitter interface {
	Submit(ctx context.Context, sub service.Submission) (*models.Order, error)
}

// Settings changes the non-line fields of a draft. Nil fields are left as
// they are.
type Settings struct {
	Customer       *cart.Customer   `json:"customer,omitempty"`
	OrderType      *cart.OrderType  `json:"orderType,omitempty"`
	ExtraDiscount  *decimal.Decimal `json:"extraDiscount,omitempty"`
	DeliveryCharge *decimal.Decimal `json:"deliveryCharge,omitempty"`
	CouponCode     *string          `json:"couponCode,omitempty"`
}

// Snapshot is a consistent copy of a session with its priced totals
type Snapshot struct {
	ID         string      `json:"id"`
	Draft      cart.Draft  `json:"draft"`
	Totals     cart.Totals `json:"totals"`
	CouponCode string      `json:"couponCode,omitempty"`
	Submitting bool        `json:"submitting"`
	OpenedAt   time.Time   `json:"openedAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

type session struct {
	mu sync.Mutex

	id        string
	draft     *cart.Draft
	coupon    string
	openedAt  time.Time
	updatedAt time.Time
	closed    bool

	// submission state; gen changes whenever a pending result must be dropped
	submitting bool
	cancel     context.CancelFunc
	gen        uint64
}

func (s *session) snapshot() Snapshot {
	d := s.draft.Clone()
	if d.Lines == nil {
		d.Lines = []cart.Line{}
	}
	return Snapshot{
		ID:         s.id,
		Draft:      d,
		Totals:     cart.ComputeTotals(d),
		CouponCode: s.coupon,
		Submitting: s.submitting,
		OpenedAt:   s.openedAt,
		UpdatedAt:  s.updatedAt,
	}
}

// abandon cancels any in-flight submission and invalidates its result
func (s *session) abandon() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.submitting = false
	s.gen++
}

// Terminal holds every open session
type Terminal struct {
	mu       sync.RWMutex
	sessions map[string]*session

	taxRate     decimal.Decimal
	idleTimeout time.Duration
	catalog     Catalog
	orders      Submitter
	log         *slog.Logger
	now         func() time.Time
}

// Options configures a Terminal
type Options struct {
	TaxRate decimal.Decimal
	// IdleTimeout drops sessions untouched for longer; zero keeps them forever
	IdleTimeout time.Duration
}

// NewTerminal creates a terminal with no open sessions
func NewTerminal(opts Options, catalog Catalog, orders Submitter, log *slog.Logger) *Terminal {
	return &Terminal{
		sessions:    make(map[string]*session),
		taxRate:     opts.TaxRate,
		idleTimeout: opts.IdleTimeout,
		catalog:     catalog,
		orders:      orders,
		log:         log,
		now:         time.Now,
	}
}

// Open starts a session with an empty draft
func (t *Terminal) Open() Snapshot {
	now := t.now().UTC()
	s := &session{
		id:        uuid.New().String(),
		draft:     cart.NewDraft(t.taxRate),
		openedAt:  now,
		updatedAt: now,
	}

	t.mu.Lock()
	t.sessions[s.id] = s
	t.mu.Unlock()

	t.PruneIdle()
	t.log.Info("pos session opened", "session_id", s.id)
	return s.snapshot()
}

// Get returns the current state of a session
func (t *Terminal) Get(id string) (Snapshot, error) {
	s, err := t.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// Close discards a session. A pending submission is cancelled and its
// result ignored.
func (t *Terminal) Close(id string) error {
	t.mu.Lock()
	s, ok := t.sessions[id]
	delete(t.sessions, id)
	t.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	s.abandon()
	s.closed = true
	s.mu.Unlock()

	t.log.Info("pos session closed", "session_id", id)
	return nil
}

// Len returns the number of open sessions
func (t *Terminal) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// PruneIdle closes sessions that have not been touched within the idle
// timeout and returns how many were closed. Sessions with a submission in
// flight are kept.
func (t *Terminal) PruneIdle() int {
	if t.idleTimeout <= 0 {
		return 0
	}
	cutoff := t.now().UTC().Add(-t.idleTimeout)

	var stale []string
	t.mu.RLock()
	for id, s := range t.sessions {
		s.mu.Lock()
		if !s.submitting && s.updatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
		s.mu.Unlock()
	}
	t.mu.RUnlock()

	for _, id := range stale {
		_ = t.Close(id)
	}
	return len(stale)
}

// AddItem puts one unit of a catalog product in the cart
func (t *Terminal) AddItem(ctx context.Context, id, productID string) (Snapshot, error) {
	if _, err := t.lookup(id); err != nil {
		return Snapshot{}, err
	}

	item, err := t.catalog.CartItem(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}

	return t.mutate(id, func(s *session) error {
		return s.draft.AddItem(item)
	})
}

// UpdateQuantity changes a line's quantity by delta
func (t *Terminal) UpdateQuantity(id, itemID string, delta int) (Snapshot, error) {
	return t.mutate(id, func(s *session) error {
		s.draft.UpdateQuantity(itemID, delta)
		return nil
	})
}

// RemoveItem drops a line from the cart
func (t *Terminal) RemoveItem(id, itemID string) (Snapshot, error) {
	return t.mutate(id, func(s *session) error {
		s.draft.RemoveItem(itemID)
		return nil
	})
}

// Configure applies settings atomically: if any field is rejected the
// draft is left unchanged.
func (t *Terminal) Configure(id string, st Settings) (Snapshot, error) {
	return t.mutate(id, func(s *session) error {
		next := s.draft.Clone()
		if st.Customer != nil {
			next.SetCustomer(*st.Customer)
		}
		if st.OrderType != nil {
			if err := next.SetOrderType(*st.OrderType); err != nil {
				return err
			}
		}
		if st.ExtraDiscount != nil {
			if err := next.SetExtraDiscount(*st.ExtraDiscount); err != nil {
				return err
			}
		}
		if st.DeliveryCharge != nil {
			if err := next.SetDeliveryCharge(*st.DeliveryCharge); err != nil {
				return err
			}
		}

		*s.draft = next
		if st.CouponCode != nil {
			s.coupon = strings.ToUpper(strings.TrimSpace(*st.CouponCode))
		}
		return nil
	})
}

// Reset clears the draft. Unlike the other mutations it is allowed while a
// submission is pending: the submission is cancelled and its result dropped.
func (t *Terminal) Reset(id string) (Snapshot, error) {
	s, err := t.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionNotFound
	}

	if s.submitting {
		t.log.Info("pending order submission abandoned", "session_id", id)
	}
	s.abandon()
	s.draft.Reset()
	s.coupon = ""
	s.updatedAt = t.now().UTC()
	return s.snapshot(), nil
}

// Submit places the session's draft as an order. The network call runs
// without the session lock; while it is pending every mutation except Reset
// and Close fails with ErrSubmissionInFlight. On success the draft is reset.
func (t *Terminal) Submit(ctx context.Context, id, actor string) (*models.Order, error) {
	s, err := t.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}

	sub := service.Submission{Draft: s.draft.Clone(), Actor: actor, CouponCode: s.coupon}
	subCtx, cancel := context.WithCancel(ctx)
	s.submitting = true
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	order, err := t.orders.Submit(subCtx, sub)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return nil, ErrSubmissionAbandoned
	}
	s.submitting = false
	s.cancel = nil
	s.updatedAt = t.now().UTC()

	if err != nil {
		return nil, err
	}

	s.draft.Reset()
	s.coupon = ""
	t.log.Info("order submitted",
		"session_id", id,
		"order_id", order.ID,
		"total", order.Total.StringFixed(2),
		"actor", sub.Actor,
	)
	return order, nil
}

func (t *Terminal) lookup(id string) (*session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (t *Terminal) mutate(id string, fn func(*session) error) (Snapshot, error) {
	s, err := t.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrSessionNotFound
	}
	if s.submitting {
		return Snapshot{}, ErrSubmissionInFlight
	}
	if err := fn(s); err != nil {
		return Snapshot{}, err
	}
	s.updatedAt = t.now().UTC()
	return s.snapshot(), nil
}
