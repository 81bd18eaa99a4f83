package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomLocks_SerializesPerRoom(t *testing.T) {
	locks := NewRoomLocks()
	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		maxSeen atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(context.Background(), "room-1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Zero(t, locks.Held(), "idle rooms are dropped")
}

func TestRoomLocks_IndependentRooms(t *testing.T) {
	locks := NewRoomLocks()
	unlockA, err := locks.Lock(context.Background(), "room-a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locks.Lock(ctx, "room-b")
	require.NoError(t, err)
	unlockB()
	assert.Equal(t, 1, locks.Held())
}

func TestRoomLocks_ContextCancelled(t *testing.T) {
	locks := NewRoomLocks()
	unlock, err := locks.Lock(context.Background(), "room-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.Lock(ctx, "room-1")
	assert.ErrorIs(t, err, context.Canceled)

	unlock()
	unlock()
	assert.Zero(t, locks.Held())
}
