package memory

import (
	"context"
	"sync"
	"time"

	"resortbook/internal/app/middleware"
)

// IdempotencyStore keeps replayable command results in process. Records older than
// Retention are pruned on write; a zero Retention keeps them for the process lifetime.
type IdempotencyStore struct {
	Retention time.Duration
	Now       func() time.Time

	mu    sync.Mutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	if !ok || s.expired(rec) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	return rec, true, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, existing := range s.items {
		if s.expired(existing) {
			delete(s.items, key)
		}
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	if s.Retention <= 0 {
		return false
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return now.Sub(rec.OccurredAt) >= s.Retention
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
