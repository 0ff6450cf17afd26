package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExclusive(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, ok, err := l.Lock(ctx, "timetable:year:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Lock(ctx, "timetable:year:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = l.Lock(ctx, "timetable:year:2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, release(ctx))
	assert.ErrorIs(t, release(ctx), ErrNotHeld)

	_, ok, err = l.Lock(ctx, "timetable:year:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerExpiredHoldIsTakenOver(t *testing.T) {
	l := NewLocalLocker()
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	stale, ok, _ := l.Lock(ctx, "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = l.Lock(ctx, "k", time.Second)
	assert.True(t, ok)
	assert.ErrorIs(t, stale(ctx), ErrNotHeld)
}

func TestLocalLockerConcurrentSingleWinner(t *testing.T) {
	l := NewLocalLocker()
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := l.Lock(context.Background(), "k", time.Minute); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}
