package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/redis"
)

var (
	ErrAlreadyPosted      = errors.New("ledger entry already posted")
	ErrClaimHeld          = errors.New("posting claimed by another consumer")
	ErrMaxRetriesExceeded = errors.New("maximum posting retries exceeded")
)

type IdempotencyConfig struct {
	ClaimTTL     time.Duration
	PostedTTL    time.Duration
	MaxRetries   int
	RetryPrefix  string
	ClaimPrefix  string
	PostedPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		ClaimTTL:     30 * time.Second,
		PostedTTL:    24 * time.Hour,
		MaxRetries:   5,
		RetryPrefix:  "ledger:retry:",
		ClaimPrefix:  "ledger:claim:",
		PostedPrefix: "ledger:posted:",
	}
}

// IdempotencyService keeps consumers from posting the same transaction
// concurrently and remembers recent successes so redelivered events are
// acked without touching the database.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(adapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{redis: adapter, config: config}
}

// Claim is held while one consumer posts one transaction.
type Claim struct {
	TransactionID int64
	RetryCount    int
	held          bool
}

func (c *Claim) IsRetry() bool {
	return c.RetryCount > 0
}

func (s *IdempotencyService) key(prefix string, txnID int64) string {
	return prefix + strconv.FormatInt(txnID, 10)
}

// Acquire claims txnID for posting.
func (s *IdempotencyService) Acquire(ctx context.Context, txnID int64) (*Claim, error) {
	posted, err := s.IsPosted(ctx, txnID)
	if err != nil {
		// posting is idempotent in the database, a lost marker only costs a query
		logger.Warn("checking posted marker failed", "transaction_id", txnID, "error", err)
	} else if posted {
		return nil, ErrAlreadyPosted
	}

	retries, err := s.RetryCount(ctx, txnID)
	if err != nil {
		logger.Warn("reading retry counter failed", "transaction_id", txnID, "error", err)
	}
	if retries >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: transaction_id=%d retries=%d", ErrMaxRetriesExceeded, txnID, retries)
	}

	ok, err := s.redis.SetNX(ctx, s.key(s.config.ClaimPrefix, txnID), []byte(strconv.FormatInt(time.Now().UnixNano(), 10)), s.config.ClaimTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimHeld, err)
	}
	if !ok {
		return nil, ErrClaimHeld
	}
	return &Claim{TransactionID: txnID, RetryCount: retries, held: true}, nil
}

// MarkPosted records success and drops the claim and retry counter.
func (s *IdempotencyService) MarkPosted(ctx context.Context, c *Claim) error {
	if err := s.redis.Set(ctx, s.key(s.config.PostedPrefix, c.TransactionID), []byte("1"), s.config.PostedTTL); err != nil {
		return fmt.Errorf("set posted marker: %w", err)
	}
	s.del(ctx, s.config.RetryPrefix, c.TransactionID)
	return s.Release(ctx, c)
}

// MarkFailed bumps the retry counter and frees the claim for the next try.
func (s *IdempotencyService) MarkFailed(ctx context.Context, c *Claim, reason error) error {
	next := c.RetryCount + 1
	if err := s.redis.Set(ctx, s.key(s.config.RetryPrefix, c.TransactionID), []byte(strconv.Itoa(next)), s.config.PostedTTL); err != nil {
		logger.Error("incrementing retry counter failed", "transaction_id", c.TransactionID, "error", err)
	}
	logger.Warn("ledger posting failed, will retry",
		"transaction_id", c.TransactionID,
		"retry_count", next,
		"max_retries", s.config.MaxRetries,
		"reason", reason)
	return s.Release(ctx, c)
}

func (s *IdempotencyService) Release(ctx context.Context, c *Claim) error {
	if c == nil || !c.held {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(s.config.ClaimPrefix, c.TransactionID)); err != nil {
		return err
	}
	c.held = false
	return nil
}

func (s *IdempotencyService) del(ctx context.Context, prefix string, txnID int64) {
	if err := s.redis.Del(ctx, s.key(prefix, txnID)); err != nil {
		logger.Warn("deleting key failed", "key", s.key(prefix, txnID), "error", err)
	}
}

func (s *IdempotencyService) RetryCount(ctx context.Context, txnID int64) (int, error) {
	raw, err := s.redis.Get(ctx, s.key(s.config.RetryPrefix, txnID))
	if errors.Is(err, redis.NilError) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("corrupt retry counter for %d: %w", txnID, err)
	}
	return n, nil
}

func (s *IdempotencyService) IsPosted(ctx context.Context, txnID int64) (bool, error) {
	n, err := s.redis.Exist(ctx, s.key(s.config.PostedPrefix, txnID))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
