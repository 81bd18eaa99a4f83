package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainrooms "resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/events"
)

// RoomRepository keeps rooms in a map. Values are copied on the way in and out so
// callers never share state.
type RoomRepository struct {
	mu    sync.RWMutex
	items map[domainrooms.RoomID]*domainrooms.Room
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{items: make(map[domainrooms.RoomID]*domainrooms.Room)}
}

func (r *RoomRepository) ByID(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.items[id]
	if !ok {
		return nil, domainrooms.ErrNotFound
	}
	return cloneRoom(room), nil
}

// Save upserts room, enforcing slug uniqueness and the optimistic version.
func (r *RoomRepository) Save(ctx context.Context, room *domainrooms.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.items {
		if id != room.ID && other.Slug == room.Slug {
			return domainrooms.ErrSlugDuplicate
		}
	}
	if current, ok := r.items[room.ID]; ok && current.Version != room.Version {
		return domainrooms.ErrVersionConflict
	}
	room.Version++
	r.items[room.ID] = cloneRoom(room)
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id domainrooms.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainrooms.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *RoomRepository) Search(ctx context.Context, params domainrooms.SearchParams) (domainrooms.SearchResult, error) {
	params = params.Normalized()
	r.mu.RLock()
	matched := make([]*domainrooms.Room, 0, len(r.items))
	for _, room := range r.items {
		if params.Matches(room) {
			matched = append(matched, cloneRoom(room))
		}
	}
	r.mu.RUnlock()

	sortRooms(matched, params.Sort)
	total := len(matched)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	return domainrooms.SearchResult{Items: matched[start:end], Total: total}, nil
}

func sortRooms(items []*domainrooms.Room, by domainrooms.CatalogSort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch by {
		case domainrooms.SortByPriceDesc:
			if a.Rate.PricePerNight.Amount != b.Rate.PricePerNight.Amount {
				return a.Rate.PricePerNight.Amount > b.Rate.PricePerNight.Amount
			}
		case domainrooms.SortByCapacity:
			if a.Capacity != b.Capacity {
				return a.Capacity > b.Capacity
			}
		case domainrooms.SortByNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default:
			if a.Rate.PricePerNight.Amount != b.Rate.PricePerNight.Amount {
				return a.Rate.PricePerNight.Amount < b.Rate.PricePerNight.Amount
			}
		}
		return strings.Compare(a.Name, b.Name) < 0
	})
}

func cloneRoom(room *domainrooms.Room) *domainrooms.Room {
	cp := *room
	cp.EventRecorder = events.EventRecorder{}
	cp.Amenities = append([]string(nil), room.Amenities...)
	cp.Images = append([]string(nil), room.Images...)
	return &cp
}

var _ domainrooms.Repository = (*RoomRepository)(nil)
