package rooms

import (
	"context"

	"resortbook/internal/app/dto"
	"resortbook/internal/app/handlers/support"
	"resortbook/internal/app/reqctx"
	"resortbook/internal/app/services/reservation"
	"resortbook/internal/app/uow"
	domainrooms "resortbook/internal/domain/rooms"
)

const (
	searchRoomsKey = "rooms.search"
	listRoomsKey   = "admin.rooms.list"
	getRoomKey     = "rooms.get"
	quoteRoomKey   = "rooms.quote"
)

type SearchFilters struct {
	Types         []string `validate:"dive,oneof=standard deluxe suite villa"`
	Amenities     []string
	MinCapacity   int    `validate:"min=0"`
	PriceMinCents int64  `validate:"min=0"`
	PriceMaxCents int64  `validate:"min=0"`
	Query         string `validate:"max=200"`
	Sort          string `validate:"omitempty,oneof=price_asc price_desc capacity_desc newest"`
	Limit         int    `validate:"min=0,max=100"`
	Offset        int    `validate:"min=0"`
}

func (f SearchFilters) params(onlyActive bool) domainrooms.SearchParams {
	types := make([]domainrooms.Type, 0, len(f.Types))
	for _, t := range f.Types {
		types = append(types, domainrooms.Type(t))
	}
	return domainrooms.SearchParams{
		Types:         types,
		Amenities:     f.Amenities,
		MinCapacity:   f.MinCapacity,
		PriceMinCents: f.PriceMinCents,
		PriceMaxCents: f.PriceMaxCents,
		Query:         f.Query,
		OnlyActive:    onlyActive,
		Sort:          domainrooms.CatalogSort(f.Sort),
		Limit:         f.Limit,
		Offset:        f.Offset,
	}.Normalized()
}

// SearchRoomsQuery is the public catalog; inactive rooms are never listed.
type SearchRoomsQuery struct {
	SearchFilters
}

func (q SearchRoomsQuery) Key() string { return searchRoomsKey }

// ListRoomsQuery is the back-office listing including inactive rooms.
type ListRoomsQuery struct {
	SearchFilters
}

func (q ListRoomsQuery) Key() string          { return listRoomsKey }
func (q ListRoomsQuery) RequiredRole() string { return reqctx.RoleAdmin }

type GetRoomQuery struct {
	ID string `validate:"required"`
}

func (q GetRoomQuery) Key() string { return getRoomKey }

type QuoteQuery struct {
	RoomID   string `validate:"required"`
	CheckIn  string `validate:"required"`
	CheckOut string `validate:"required"`
}

func (q QuoteQuery) Key() string { return quoteRoomKey }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Service    *reservation.Service
}

func (h *QueryHandler) Search(ctx context.Context, q SearchRoomsQuery) (dto.RoomCatalog, error) {
	return h.search(ctx, q.params(true))
}

func (h *QueryHandler) List(ctx context.Context, q ListRoomsQuery) (dto.RoomCatalog, error) {
	return h.search(ctx, q.params(false))
}

func (h *QueryHandler) search(ctx context.Context, params domainrooms.SearchParams) (dto.RoomCatalog, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RoomCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	result, err := unit.Rooms().Search(execCtx, params)
	if err != nil {
		return dto.RoomCatalog{}, err
	}
	return dto.MapCatalog(result, params), nil
}

func (h *QueryHandler) Get(ctx context.Context, q GetRoomQuery) (dto.Room, error) {
	room, err := h.load(ctx, q.ID)
	if err != nil {
		return dto.Room{}, err
	}
	return dto.MapRoom(room), nil
}

// Quote prices a stay at the room's current rate without checking availability.
func (h *QueryHandler) Quote(ctx context.Context, q QuoteQuery) (dto.QuoteDTO, error) {
	room, err := h.load(ctx, q.RoomID)
	if err != nil {
		return dto.QuoteDTO{}, err
	}
	quote, err := h.Service.Quote(room.Rate, q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.QuoteDTO{}, err
	}
	return dto.MapQuote(quote), nil
}

// load hides inactive rooms from everyone but admins.
func (h *QueryHandler) load(ctx context.Context, id string) (*domainrooms.Room, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	room, err := unit.Rooms().ByID(execCtx, domainrooms.RoomID(id))
	if err != nil {
		return nil, err
	}
	if !room.Active {
		if p, ok := reqctx.PrincipalFrom(ctx); !ok || !p.IsAdmin() {
			return nil, domainrooms.ErrNotFound
		}
	}
	return room, nil
}
