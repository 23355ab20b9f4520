package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/parishworks/parish-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) redis.RedisAdapter {
	mr := miniredis.RunT(t)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "test:", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return adapter
}

func testConfig(name string) Config {
	return Config{
		Name:              name,
		ConsumerGroup:     "ledger",
		ConsumerName:      "worker-1",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      50 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	}
}

type ledgerEvent struct {
	TransactionID int64 `json:"transaction_id"`
}

func TestQueue_PublishAndConsume(t *testing.T) {
	adapter := setupTestRedis(t)
	ctx := context.Background()

	q, err := New(ctx, adapter, testConfig("ledger:outbox"))
	require.NoError(t, err)

	_, err = q.PublishJSON(ctx, ledgerEvent{TransactionID: 42}, map[string]string{"reason": "post_failed"})
	require.NoError(t, err)

	received := make(chan ledgerEvent, 1)
	require.NoError(t, q.Consume(ctx, func(ctx context.Context, msg *Message) error {
		var ev ledgerEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		assert.Equal(t, "post_failed", msg.Metadata["reason"])
		received <- ev
		return nil
	}))

	select {
	case ev := <-received:
		assert.Equal(t, int64(42), ev.TransactionID)
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
	require.NoError(t, q.Stop(time.Second))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalMessages)
	assert.Zero(t, stats.PendingMessages)
}

func TestQueue_NewIsIdempotent(t *testing.T) {
	adapter := setupTestRedis(t)
	ctx := context.Background()

	_, err := New(ctx, adapter, testConfig("ledger:outbox"))
	require.NoError(t, err)
	_, err = New(ctx, adapter, testConfig("ledger:outbox"))
	assert.NoError(t, err)

	_, err = New(ctx, adapter, Config{})
	assert.Error(t, err)
}

func TestQueue_FailedHandlerLeavesMessagePending(t *testing.T) {
	adapter := setupTestRedis(t)
	ctx := context.Background()

	q, err := New(ctx, adapter, testConfig("ledger:retry"))
	require.NoError(t, err)

	_, err = q.PublishJSON(ctx, ledgerEvent{TransactionID: 7}, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	require.NoError(t, q.Consume(ctx, func(ctx context.Context, msg *Message) error {
		calls.Add(1)
		return assert.AnError
	}))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	require.NoError(t, q.Stop(time.Second))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingMessages)
}

func TestQueue_ExhaustedMessageGoesToDeadLetter(t *testing.T) {
	adapter := setupTestRedis(t)
	ctx := context.Background()

	q, err := New(ctx, adapter, testConfig("ledger:dlq"))
	require.NoError(t, err)

	msg := &Message{ID: "0-1", Data: []byte(`{"transaction_id":9}`), Attempts: 3, Metadata: map[string]string{}, queue: q}
	q.handler = func(ctx context.Context, msg *Message) error {
		t.Fatal("handler must not run for exhausted messages")
		return nil
	}
	q.handle(ctx, msg)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DeadLetters)
}

func TestMessage_AckNack(t *testing.T) {
	adapter := setupTestRedis(t)
	ctx := context.Background()

	q, err := New(ctx, adapter, testConfig("ledger:ack"))
	require.NoError(t, err)

	id, err := q.Publish(ctx, []byte(`{}`), nil)
	require.NoError(t, err)

	msg := &Message{ID: id, queue: q}
	require.NoError(t, msg.Ack(ctx))
	assert.ErrorIs(t, msg.Ack(ctx), ErrAlreadyAcked)
	assert.ErrorIs(t, msg.Nack(), ErrAlreadyAcked)

	other := &Message{ID: "0-9", queue: q}
	require.NoError(t, other.Nack())
	assert.ErrorIs(t, other.Nack(), ErrAlreadyNacked)
}

func TestQueue_ConsumeRequiresHandler(t *testing.T) {
	adapter := setupTestRedis(t)
	q, err := New(context.Background(), adapter, testConfig("ledger:nohandler"))
	require.NoError(t, err)
	assert.ErrorIs(t, q.Consume(context.Background(), nil), ErrNoHandler)
}
