package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockMutualExclusion(t *testing.T) {
	_, client := redisClient(t)
	ctx := context.Background()

	a := NewRedisLock(client, "process-reminders", time.Minute)
	b := NewRedisLock(client, "process-reminders", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	require.NoError(t, a.Release(ctx))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock should be free after release")
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	_, client := redisClient(t)
	ctx := context.Background()

	a := NewRedisLock(client, "process-reminders", time.Minute)
	b := NewRedisLock(client, "process-reminders", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// b never acquired; its release must not free a's lock.
	require.NoError(t, b.Release(ctx))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a still holds the lock")
}

func TestRedisLockExpiresWithTTL(t *testing.T) {
	mr, client := redisClient(t)
	ctx := context.Background()

	a := NewRedisLock(client, "process-reminders", 10*time.Second)
	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A crashed holder never releases; the TTL frees the lock.
	mr.FastForward(11 * time.Second)

	b := NewRedisLock(client, "process-reminders", 10*time.Second)
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDifferentKeysDoNotContend(t *testing.T) {
	_, client := redisClient(t)
	ctx := context.Background()

	a := NewRedisLock(client, "process-reminders", time.Minute)
	b := NewRedisLock(client, "process-trial-funnel", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewPrefersRedis(t *testing.T) {
	_, client := redisClient(t)

	l := New(client, nil, "process-reminders", time.Minute)
	_, isRedis := l.(*RedisLock)
	assert.True(t, isRedis)

	l = New(nil, nil, "process-reminders", time.Minute)
	_, isPG := l.(*PGAdvisoryLock)
	assert.True(t, isPG)
}
