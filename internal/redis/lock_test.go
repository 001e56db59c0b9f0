package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*miniredis.Miniredis, Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisSlotLocker(client, 5*time.Second)
}

func TestWithSlotLockReleasesKey(t *testing.T) {
	mr, locker := newTestLocker(t)
	slotID := uuid.New()

	called := false
	err := locker.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		called = true
		assert.True(t, mr.Exists(SlotLockKey(slotID)), "key should be held inside the critical section")
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, mr.Exists(SlotLockKey(slotID)))
}

func TestWithSlotLockRejectsHeldSlot(t *testing.T) {
	mr, locker := newTestLocker(t)
	slotID := uuid.New()
	require.NoError(t, mr.Set(SlotLockKey(slotID), "someone-else"))

	err := locker.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})

	assert.ErrorIs(t, err, ErrLockNotAcquired)
	got, _ := mr.Get(SlotLockKey(slotID))
	assert.Equal(t, "someone-else", got, "foreign token must survive")
}

func TestWithSlotLockPropagatesError(t *testing.T) {
	mr, locker := newTestLocker(t)
	slotID := uuid.New()
	boom := errors.New("boom")

	err := locker.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(SlotLockKey(slotID)))
}

func TestNopLockerRunsFn(t *testing.T) {
	ran := false
	err := NopLocker{}.WithSlotLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
