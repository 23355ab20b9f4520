package locks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/parishworks/parish-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocker(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisLocker) {
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "parish:", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, NewRedisLocker(adapter, ttl)
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	mr, locker := setupLocker(t, 10*time.Second)
	ctx := context.Background()
	key := BankTransactionKey(15)

	lease, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, mr.Exists("parish:lock:reconcile:bank:15"))

	_, err = locker.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrLeaseHeld)

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("parish:lock:reconcile:bank:15"))

	again, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestRedisLocker_ReleaseKeepsForeignLease(t *testing.T) {
	mr, locker := setupLocker(t, time.Second)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "bank_tx:1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, "bank_tx:1")
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists("parish:lock:bank_tx:1"))

	require.NoError(t, fresh.Release(ctx))
	assert.False(t, mr.Exists("parish:lock:bank_tx:1"))
}

func TestNoopLocker(t *testing.T) {
	lease, err := NoopLocker{}.Acquire(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", lease.Key())
	assert.NoError(t, lease.Release(context.Background()))
}
