package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/backend"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/debounce"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
)

// BackendFetcher reads the latest order from the backend
type BackendFetcher struct {
	client *backend.Client
}

// NewBackendFetcher creates a fetcher reading from client
func NewBackendFetcher(client *backend.Client) *BackendFetcher {
	return &BackendFetcher{client: client}
}

// Latest calls GET orders/latest. A 404 means no orders exist yet.
func (f *BackendFetcher) Latest(ctx context.Context) (*models.Order, error) {
	var order models.Order
	if err := f.client.Get(ctx, "orders/latest", nil, &order); err != nil {
		if backend.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if order.ID == "" {
		return nil, nil
	}
	return &order, nil
}

// LogSink writes each new order to the structured log
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a sink logging to log
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Notify logs the order at info level
func (s *LogSink) Notify(_ context.Context, order models.Order) error {
	s.log.Info("new order received",
		"order_id", order.ID,
		"customer", order.CustomerName,
		"status", order.Status,
		"total", order.Total.StringFixed(2),
		"created_at", order.CreatedAt,
	)
	return nil
}

// MultiSink forwards to every sink and joins their errors
type MultiSink []Sink

// Notify delivers the order to every sink even when one fails
func (m MultiSink) Notify(ctx context.Context, order models.Order) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Event is the message published for a new order
type Event struct {
	Type       string       `json:"type"`
	Order      models.Order `json:"order"`
	ObservedAt time.Time    `json:"observedAt"`
}

// EventNewOrder is the Event type published for a newly observed order
const EventNewOrder = "order.new"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes new orders as JSON to a fanout exchange
type AMQPSink struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       publisher
	exchange string
}

// DialAMQP connects to the broker and declares the fanout exchange
func DialAMQP(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	return &AMQPSink{conn: conn, ch: ch, exchange: exchange}, nil
}

// Notify publishes the order as a persistent JSON Event
func (s *AMQPSink) Notify(ctx context.Context, order models.Order) error {
	body, err := json.Marshal(Event{Type: EventNewOrder, Order: order, ObservedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.ch.PublishWithContext(ctx, s.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    order.ID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish order %s: %w", order.ID, err)
	}
	return nil
}

// Close closes the channel and the connection
func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if ch, ok := s.ch.(*amqp.Channel); ok && ch != nil {
		errs = append(errs, ch.Close())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}

// DebouncedSink coalesces bursts of new orders and forwards only the most
// recent one once the burst settles.
type DebouncedSink struct {
	next    Sink
	timeout time.Duration
	log     *slog.Logger
	d       *debounce.Debouncer

	mu      sync.Mutex
	pending *models.Order
}

// NewDebouncedSink wraps next. timeout bounds each forwarded call.
func NewDebouncedSink(next Sink, wait, timeout time.Duration, log *slog.Logger) *DebouncedSink {
	s := &DebouncedSink{next: next, timeout: timeout, log: log}
	s.d = debounce.New(wait, s.flush)
	return s
}

// Notify records order as pending and restarts the quiet period
func (s *DebouncedSink) Notify(_ context.Context, order models.Order) error {
	s.mu.Lock()
	s.pending = &order
	s.mu.Unlock()

	s.d.Trigger()
	return nil
}

// Stop drops any order still waiting to be forwarded
func (s *DebouncedSink) Stop() {
	s.d.Stop()
}

func (s *DebouncedSink) flush() {
	s.mu.Lock()
	order := s.pending
	s.pending = nil
	s.mu.Unlock()

	if order == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.next.Notify(ctx, *order); err != nil {
		s.log.Error("failed to forward order notification", "order_id", order.ID, "error", err)
	}
}
