// Package queue is a Redis Streams work queue with consumer groups, reclaim
// of stuck deliveries and an optional dead-letter stream.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/redis"
)

var (
	ErrAlreadyAcked  = errors.New("message already acknowledged")
	ErrAlreadyNacked = errors.New("message already rejected")
	ErrNoHandler     = errors.New("message handler is required")
)

type Message struct {
	ID        string
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
	Attempts  int
	acked     bool
	nacked    bool
	queue     *Queue
}

func (m *Message) Ack(ctx context.Context) error {
	if m.acked {
		return ErrAlreadyAcked
	}
	if m.nacked {
		return ErrAlreadyNacked
	}
	m.acked = true
	return m.queue.ack(ctx, m.ID)
}

// Nack leaves the delivery pending so it is reclaimed after the visibility
// timeout.
func (m *Message) Nack() error {
	if m.acked {
		return ErrAlreadyAcked
	}
	if m.nacked {
		return ErrAlreadyNacked
	}
	m.nacked = true
	return nil
}

// Decode unmarshals the JSON payload into v.
func (m *Message) Decode(v any) error {
	return json.Unmarshal(m.Data, v)
}

// Handler processes one delivery. A nil error acks it, anything else leaves
// it pending for retry.
type Handler func(ctx context.Context, msg *Message) error

type Config struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

func (c Config) withDefaults() Config {
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "default-group"
	}
	if c.ConsumerName == "" {
		c.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.VisibilityTimeout == 0 {
		c.VisibilityTimeout = 30 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = time.Second
	}
	if c.BatchSize == 0 {
		c.BatchSize = 10
	}
	return c
}

func (c Config) dlqName() string {
	return c.Name + ":dlq"
}

type Queue struct {
	adapter redis.RedisAdapter
	config  Config
	handler Handler
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running map[string]struct{}
}

type Stats struct {
	TotalMessages   int64 `json:"total_messages"`
	PendingMessages int64 `json:"pending_messages"`
	ConsumerCount   int64 `json:"consumer_count"`
	DeadLetters     int64 `json:"dead_letters"`
}

func New(ctx context.Context, adapter redis.RedisAdapter, config Config) (*Queue, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	q := &Queue{
		adapter: adapter,
		config:  config.withDefaults(),
		running: make(map[string]struct{}),
	}

	err := adapter.XGroupCreateMkStream(ctx, q.config.Name, q.config.ConsumerGroup, "0")
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group %s: %w", q.config.ConsumerGroup, err)
	}
	return q, nil
}

func (q *Queue) Name() string {
	return q.config.Name
}

func (q *Queue) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		"data":      string(data),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"attempts":  0,
	}
	for k, v := range metadata {
		values["meta_"+k] = v
	}

	id, err := q.adapter.XAdd(ctx, q.config.Name, values)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", q.config.Name, err)
	}
	if q.config.MaxLen > 0 {
		if err := q.adapter.XTrimApprox(ctx, q.config.Name, q.config.MaxLen); err != nil {
			logger.Warn("queue trim failed", "queue", q.config.Name, "error", err)
		}
	}
	return id, nil
}

func (q *Queue) PublishJSON(ctx context.Context, v any, metadata map[string]string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	return q.Publish(ctx, data, metadata)
}

// Consume starts the poll loop in the background. It stops when ctx is done
// or Stop is called.
func (q *Queue) Consume(ctx context.Context, handler Handler) error {
	if handler == nil {
		return ErrNoHandler
	}
	ctx, q.cancel = context.WithCancel(ctx)
	q.handler = handler

	q.wg.Add(1)
	go q.loop(ctx)
	return nil
}

func (q *Queue) loop(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.readNew(ctx)
			q.reclaim(ctx)
		}
	}
}

func (q *Queue) readNew(ctx context.Context) {
	msgs, err := q.adapter.XReadGroup(ctx, q.config.ConsumerGroup, q.config.ConsumerName, q.config.Name, ">", q.config.BatchSize)
	if err != nil {
		if !errors.Is(err, redis.NilError) && ctx.Err() == nil {
			logger.Warn("queue read failed", "queue", q.config.Name, "error", err)
		}
		return
	}
	for _, sm := range msgs {
		q.handle(ctx, q.decode(sm))
	}
}

func (q *Queue) reclaim(ctx context.Context) {
	pending, err := q.adapter.XPending(ctx, q.config.Name, q.config.ConsumerGroup)
	if err != nil || pending == nil || pending.Count == 0 {
		return
	}

	ext, err := q.adapter.XPendingExt(ctx, q.config.Name, q.config.ConsumerGroup, "-", "+", 100)
	if err != nil {
		return
	}

	var ids []string
	retries := make(map[string]int64, len(ext))
	for _, p := range ext {
		if p.Idle >= q.config.VisibilityTimeout {
			ids = append(ids, p.ID)
			retries[p.ID] = p.RetryCount
		}
	}
	if len(ids) == 0 {
		return
	}

	msgs, err := q.adapter.XClaim(ctx, q.config.Name, q.config.ConsumerGroup, q.config.ConsumerName, q.config.VisibilityTimeout, ids...)
	if err != nil {
		logger.Warn("queue reclaim failed", "queue", q.config.Name, "error", err)
		return
	}
	for _, sm := range msgs {
		msg := q.decode(sm)
		msg.Attempts = int(retries[sm.ID])
		q.handle(ctx, msg)
	}
}

func (q *Queue) handle(ctx context.Context, msg *Message) {
	q.mu.Lock()
	if _, busy := q.running[msg.ID]; busy {
		q.mu.Unlock()
		return
	}
	q.running[msg.ID] = struct{}{}
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		delete(q.running, msg.ID)
		q.mu.Unlock()
	}()

	if msg.Attempts >= q.config.MaxRetries {
		q.deadLetter(ctx, msg)
		_ = q.ack(ctx, msg.ID)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, q.config.VisibilityTimeout)
	defer cancel()

	if err := q.handler(hctx, msg); err != nil {
		logger.Warn("queue handler failed", "queue", q.config.Name, "id", msg.ID, "attempts", msg.Attempts, "error", err)
		return
	}
	if !msg.acked && !msg.nacked {
		if err := q.ack(ctx, msg.ID); err != nil {
			logger.Error("queue ack failed", "queue", q.config.Name, "id", msg.ID, "error", err)
		}
	}
}

func (q *Queue) ack(ctx context.Context, id string) error {
	return q.adapter.XAck(ctx, q.config.Name, q.config.ConsumerGroup, id)
}

func (q *Queue) deadLetter(ctx context.Context, msg *Message) {
	logger.Error("queue message exhausted retries", "queue", q.config.Name, "id", msg.ID, "attempts", msg.Attempts)
	if !q.config.EnableDLQ {
		return
	}
	values := map[string]interface{}{
		"data":           string(msg.Data),
		"original_id":    msg.ID,
		"attempts":       msg.Attempts,
		"failed_at":      time.Now().UTC().Format(time.RFC3339),
		"original_queue": q.config.Name,
	}
	for k, v := range msg.Metadata {
		values["meta_"+k] = v
	}
	if _, err := q.adapter.XAdd(ctx, q.config.dlqName(), values); err != nil {
		logger.Error("dead letter publish failed", "queue", q.config.Name, "id", msg.ID, "error", err)
	}
}

func (q *Queue) decode(sm redis.StreamMessage) *Message {
	msg := &Message{
		ID:       sm.ID,
		Metadata: make(map[string]string),
		queue:    q,
	}
	for k, v := range sm.Values {
		s, _ := v.(string)
		switch {
		case k == "data":
			msg.Data = []byte(s)
		case k == "timestamp":
			if ts, err := time.Parse(time.RFC3339, s); err == nil {
				msg.Timestamp = ts
			}
		case k == "attempts":
			msg.Attempts, _ = strconv.Atoi(s)
		case strings.HasPrefix(k, "meta_"):
			msg.Metadata[strings.TrimPrefix(k, "meta_")] = s
		}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return msg
}

// Stop cancels the poll loop and waits up to timeout for it to exit.
func (q *Queue) Stop(timeout time.Duration) error {
	if q.cancel != nil {
		q.cancel()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for queue %s to stop", q.config.Name)
	}
}

func (q *Queue) Stats(ctx context.Context) (*Stats, error) {
	total, err := q.adapter.XLen(ctx, q.config.Name)
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalMessages: total}

	if pending, err := q.adapter.XPending(ctx, q.config.Name, q.config.ConsumerGroup); err == nil && pending != nil {
		stats.PendingMessages = pending.Count
		stats.ConsumerCount = int64(len(pending.Consumers))
	}
	if q.config.EnableDLQ {
		if n, err := q.adapter.XLen(ctx, q.config.dlqName()); err == nil {
			stats.DeadLetters = n
		}
	}
	return stats, nil
}
