package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	domainbooking "resortbook/internal/domain/booking"
	domainrooms "resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/events"
)

var ErrDuplicateBooking = errors.New("memory: booking id already stored")

// BookingRepository stores bookings in memory and enforces night exclusion itself.
type BookingRepository struct {
	mu    sync.RWMutex
	seq   int64
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// Create rejects b with ErrNightsClaimed when a blocking booking of the same room
// overlaps it. Stored bookings get the next sequence number.
func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[b.ID]; exists {
		return ErrDuplicateBooking
	}
	if b.Blocking() {
		for _, other := range r.items {
			if other.RoomID == b.RoomID && other.Blocking() && other.Range.Overlaps(b.Range) {
				return domainbooking.ErrNightsClaimed
			}
		}
	}
	r.seq++
	b.Sequence = r.seq
	b.Version = 1
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[b.ID]
	if !ok {
		return domainbooking.ErrBookingNotFound
	}
	if current.Version != b.Version {
		return domainbooking.ErrVersionConflict
	}
	b.Version++
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ActiveByRoom(ctx context.Context, roomID domainrooms.RoomID) ([]*domainbooking.Booking, error) {
	out := r.filter(func(b *domainbooking.Booking) bool {
		return b.RoomID == roomID && b.Blocking()
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Range.CheckIn.Equal(out[j].Range.CheckIn) {
			return out[i].Range.CheckIn.Before(out[j].Range.CheckIn)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	out := r.filter(func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
	newestFirst(out)
	return out, nil
}

func (r *BookingRepository) List(ctx context.Context, params domainbooking.ListParams) ([]*domainbooking.Booking, int, error) {
	out := r.filter(func(b *domainbooking.Booking) bool {
		if params.RoomID != "" && b.RoomID != params.RoomID {
			return false
		}
		return params.Status == "" || b.Status == params.Status
	})
	newestFirst(out)
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

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func newestFirst(items []*domainbooking.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Sequence > items[j].Sequence
	})
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
