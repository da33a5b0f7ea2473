// Package notify watches the backend for new orders and announces them.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
)

// Fetcher returns the most recent order. A nil order with a nil error means
// there are no orders yet.
type Fetcher interface {
	Latest(ctx context.Context) (*models.Order, error)
}

// Sink receives every order that is newer than the last one seen
type Sink interface {
	Notify(ctx context.Context, order models.Order) error
}

// Poller checks the latest order at a fixed interval
type Poller struct {
	fetcher  Fetcher
	sink     Sink
	interval time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	last   *models.Order
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller. It does nothing until Start is called.
func NewPoller(fetcher Fetcher, sink Sink, interval time.Duration, log *slog.Logger) *Poller {
	return &Poller{
		fetcher:  fetcher,
		sink:     sink,
		interval: interval,
		log:      log,
	}
}

// Start launches the polling goroutine. Calling Start on a running poller
// is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)
	p.log.Info("order notification poller started", "interval", p.interval)
}

// Stop cancels the polling goroutine and waits for it to exit
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.log.Info("order notification poller stopped")
}

// Latest returns the newest order observed so far
func (p *Poller) Latest() (models.Order, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil {
		return models.Order{}, false
	}
	return *p.last, true
}

// Poll runs one check. The first order observed only sets the baseline.
func (p *Poller) Poll(ctx context.Context) error {
	order, err := p.fetcher.Latest(ctx)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	p.mu.Lock()
	prev := p.last
	fresh := prev == nil || isNewer(*order, *prev)
	if fresh {
		latest := *order
		p.last = &latest
	}
	p.mu.Unlock()

	if prev == nil || !fresh {
		return nil
	}
	return p.sink.Notify(ctx, *order)
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
		p.log.Warn("latest order poll failed", "error", err)
	}
}

// isNewer compares by creation time; a different order created at the same
// instant also counts as new.
func isNewer(order, last models.Order) bool {
	if order.CreatedAt.After(last.CreatedAt) {
		return true
	}
	return order.CreatedAt.Equal(last.CreatedAt) && order.ID != last.ID
}
