package memory

import (
	"context"
	"sync"
)

// RoomLocks is a keyed mutex: one lock per room, created on demand and dropped once
// nobody holds or waits for it.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	sem  chan struct{}
	refs int
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[string]*roomLock)}
}

// Lock blocks until the room is free or ctx is done.
func (l *RoomLocks) Lock(ctx context.Context, roomID string) (func(), error) {
	l.mu.Lock()
	rl, ok := l.locks[roomID]
	if !ok {
		rl = &roomLock{sem: make(chan struct{}, 1)}
		l.locks[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(roomID, rl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-rl.sem
			l.release(roomID, rl)
		})
	}, nil
}

func (l *RoomLocks) release(roomID string, rl *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, roomID)
	}
}

// Held reports how many rooms currently have a holder or waiter.
func (l *RoomLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
