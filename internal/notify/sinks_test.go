package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/pkg/logger"
)

type fakePublisher struct {
	mu       sync.Mutex
	exchange string
	msgs     []amqp.Publishing
	err      error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchange = exchange
	f.msgs = append(f.msgs, msg)
	return f.err
}

func TestAMQPSink_Notify(t *testing.T) {
	pub := &fakePublisher{}
	sink := &AMQPSink{ch: pub, exchange: "orders_fanout"}

	order := models.Order{ID: "o-1", CustomerName: "Ada", Total: decimal.RequireFromString("26.25"), CreatedAt: t0}
	require.NoError(t, sink.Notify(context.Background(), order))

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, "orders_fanout", pub.exchange)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "o-1", msg.MessageId)

	var event Event
	require.NoError(t, json.Unmarshal(msg.Body, &event))
	assert.Equal(t, EventNewOrder, event.Type)
	assert.Equal(t, "o-1", event.Order.ID)
	assert.True(t, event.Order.Total.Equal(decimal.RequireFromString("26.25")))
}

func TestAMQPSink_PublishError(t *testing.T) {
	pubErr := errors.New("channel closed")
	sink := &AMQPSink{ch: &fakePublisher{err: pubErr}, exchange: "x"}

	err := sink.Notify(context.Background(), models.Order{ID: "o-1"})
	assert.ErrorIs(t, err, pubErr)
	assert.NoError(t, sink.Close())
}

func TestMultiSink(t *testing.T) {
	okSink := &recordingSink{}
	failErr := errors.New("fail")
	failSink := &recordingSink{err: failErr}

	err := MultiSink{okSink, failSink}.Notify(context.Background(), models.Order{ID: "o-1"})

	assert.ErrorIs(t, err, failErr)
	assert.Len(t, okSink.received(), 1)
	assert.Len(t, failSink.received(), 1)
	assert.NoError(t, MultiSink{okSink}.Notify(context.Background(), models.Order{ID: "o-2"}))
}

func TestLogSink(t *testing.T) {
	assert.NoError(t, NewLogSink(logger.New("error")).Notify(context.Background(), models.Order{ID: "o-1"}))
}

func TestDebouncedSink_ForwardsLatestOfBurst(t *testing.T) {
	next := &recordingSink{}
	sink := NewDebouncedSink(next, 30*time.Millisecond, time.Second, logger.New("error"))
	defer sink.Stop()

	for _, id := range []string{"o-1", "o-2", "o-3"} {
		require.NoError(t, sink.Notify(context.Background(), models.Order{ID: id}))
	}

	assert.Eventually(t, func() bool { return len(next.received()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "o-3", next.received()[0].ID)
}

func TestDebouncedSink_Stop(t *testing.T) {
	next := &recordingSink{}
	sink := NewDebouncedSink(next, 20*time.Millisecond, time.Second, logger.New("error"))

	require.NoError(t, sink.Notify(context.Background(), models.Order{ID: "o-1"}))
	sink.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, next.received())
}
