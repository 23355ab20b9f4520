// Package locks provides short-lived Redis leases that serialize work on a
// single key across processes.
package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/parishworks/parish-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

var ErrLeaseHeld = errors.New("lease is held by another worker")

// releaseScript deletes the key only when it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker interface {
	Acquire(ctx context.Context, key string) (*Lease, error)
}

type RedisLocker struct {
	redis  redis.RedisAdapter
	ttl    time.Duration
	prefix string
}

func NewRedisLocker(adapter redis.RedisAdapter, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		redis:  adapter,
		ttl:    ttl,
		prefix: "lock:",
	}
}

type Lease struct {
	key    string
	token  string
	locker *RedisLocker
}

func (l *Lease) Key() string {
	return l.key
}

// Acquire takes the lease for key or fails with ErrLeaseHeld.
func (r *RedisLocker) Acquire(ctx context.Context, key string) (*Lease, error) {
	token := uuid.NewString()
	ok, err := r.redis.SetNX(ctx, r.prefix+key, []byte(token), r.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLeaseHeld, key)
	}
	logger.Debug("lease acquired", "key", key, "ttl", r.ttl)
	return &Lease{key: key, token: token, locker: r}, nil
}

// Release drops the lease if it has not expired and been taken by someone
// else in the meantime.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.locker == nil {
		return nil
	}
	res, err := l.locker.redis.EvalScript(ctx, releaseScript, []string{l.locker.prefix + l.key}, l.token)
	if err != nil {
		logger.Warn("lease release failed", "key", l.key, "error", err)
		return err
	}
	if n, _ := res.(int64); n == 0 {
		logger.Warn("lease expired before release", "key", l.key)
	}
	return nil
}

// BankTransactionKey is the lease key guarding reconciliation of one bank row.
func BankTransactionKey(id int64) string {
	return fmt.Sprintf("reconcile:bank:%d", id)
}

// NoopLocker hands out leases without coordination. Used when Redis is not
// configured, as in the CLI.
type NoopLocker struct{}

func (NoopLocker) Acquire(_ context.Context, key string) (*Lease, error) {
	return &Lease{key: key}, nil
}
