package memory

import (
	"context"
	"sort"
	"sync"

	"resortbook/internal/app/audit"
)

type AuditStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Append(ctx context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *AuditStore) List(ctx context.Context, params audit.ListParams) ([]audit.Entry, int, error) {
	s.mu.RLock()
	out := make([]audit.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if params.BookingID != "" && e.BookingID != params.BookingID {
			continue
		}
		if params.RoomID != "" && e.RoomID != params.RoomID {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	total := len(out)
	start := params.Offset
	if start < 0 || start > total {
		start = total
	}
	end := total
	if params.Limit > 0 && start+params.Limit < total {
		end = start + params.Limit
	}
	return out[start:end], total, nil
}

// Inbox remembers processed event ids.
type Inbox struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewInbox() *Inbox {
	return &Inbox{seen: make(map[string]struct{})}
}

func (i *Inbox) Seen(ctx context.Context, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.seen[eventID]; ok {
		return true, nil
	}
	i.seen[eventID] = struct{}{}
	return false, nil
}

func (i *Inbox) Forget(ctx context.Context, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.seen, eventID)
	return nil
}

var (
	_ audit.Store = (*AuditStore)(nil)
	_ audit.Inbox = (*Inbox)(nil)
)
