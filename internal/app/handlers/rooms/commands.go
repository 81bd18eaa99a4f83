package rooms

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"resortbook/internal/app/dto"
	"resortbook/internal/app/handlers/support"
	"resortbook/internal/app/outbox"
	"resortbook/internal/app/reqctx"
	"resortbook/internal/app/uow"
	"resortbook/internal/domain/pricing"
	domainrooms "resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/events"
	"resortbook/internal/domain/shared/money"
)

const (
	createRoomKey    = "rooms.create"
	updateRoomKey    = "rooms.update"
	deleteRoomKey    = "rooms.delete"
	setRoomActiveKey = "rooms.set_active"
)

// RoomInput is the editable part of a room as submitted by the back-office.
type RoomInput struct {
	Name           string   `json:"name" validate:"required,max=120"`
	Slug           string   `json:"slug" validate:"max=120"`
	Type           string   `json:"type" validate:"omitempty,oneof=standard deluxe suite villa"`
	Description    string   `json:"description" validate:"max=4000"`
	Capacity       int      `json:"capacity" validate:"min=1,max=50"`
	Amenities      []string `json:"amenities" validate:"max=50,dive,max=60"`
	Images         []string `json:"images" validate:"max=20,dive,url"`
	PricePerNight  string   `json:"price_per_night" validate:"required,numeric"`
	Currency       string   `json:"currency" validate:"omitempty,len=3,alpha"`
	TaxRatePercent float64  `json:"tax_rate_percent" validate:"min=0,max=100"`
}

type CreateRoomCommand struct {
	RoomInput
	Active bool `json:"active"`
}

func (c CreateRoomCommand) Key() string          { return createRoomKey }
func (c CreateRoomCommand) RequiredRole() string { return reqctx.RoleAdmin }

type UpdateRoomCommand struct {
	ID string `json:"id" validate:"required"`
	RoomInput
}

func (c UpdateRoomCommand) Key() string          { return updateRoomKey }
func (c UpdateRoomCommand) RequiredRole() string { return reqctx.RoleAdmin }

type DeleteRoomCommand struct {
	ID string `json:"id" validate:"required"`
}

func (c DeleteRoomCommand) Key() string          { return deleteRoomKey }
func (c DeleteRoomCommand) RequiredRole() string { return reqctx.RoleAdmin }

type SetRoomActiveCommand struct {
	ID     string `json:"id" validate:"required"`
	Active bool   `json:"active"`
}

func (c SetRoomActiveCommand) Key() string          { return setRoomActiveKey }
func (c SetRoomActiveCommand) RequiredRole() string { return reqctx.RoleAdmin }

type CommandHandler struct {
	UoWFactory      uow.UoWFactory
	Outbox          outbox.Outbox
	Encoder         outbox.EventEncoder
	DefaultCurrency string
	Logger          *slog.Logger
	Now             func() time.Time
	NewID           func() string
}

func (h *CommandHandler) Create(ctx context.Context, cmd CreateRoomCommand) (dto.Room, error) {
	details, err := h.details(cmd.RoomInput)
	if err != nil {
		return dto.Room{}, err
	}
	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Room{}, err
	}
	defer unit.Release()

	room, err := domainrooms.NewRoom(domainrooms.CreateParams{
		ID:      domainrooms.RoomID(h.newID()),
		Details: details,
		Active:  cmd.Active,
		Now:     h.now(),
	})
	if err != nil {
		return dto.Room{}, err
	}
	if err := h.persist(unit, room); err != nil {
		return dto.Room{}, err
	}
	h.log("room created", room)
	return dto.MapRoom(room), nil
}

func (h *CommandHandler) Update(ctx context.Context, cmd UpdateRoomCommand) (dto.Room, error) {
	details, err := h.details(cmd.RoomInput)
	if err != nil {
		return dto.Room{}, err
	}
	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Room{}, err
	}
	defer unit.Release()

	room, err := unit.Rooms().ByID(unit.Ctx, domainrooms.RoomID(cmd.ID))
	if err != nil {
		return dto.Room{}, err
	}
	if err := room.Update(details, h.now()); err != nil {
		return dto.Room{}, err
	}
	if err := h.persist(unit, room); err != nil {
		return dto.Room{}, err
	}
	h.log("room updated", room)
	return dto.MapRoom(room), nil
}

func (h *CommandHandler) SetActive(ctx context.Context, cmd SetRoomActiveCommand) (dto.Room, error) {
	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Room{}, err
	}
	defer unit.Release()

	room, err := unit.Rooms().ByID(unit.Ctx, domainrooms.RoomID(cmd.ID))
	if err != nil {
		return dto.Room{}, err
	}
	room.SetActive(cmd.Active, h.now())
	if err := h.persist(unit, room); err != nil {
		return dto.Room{}, err
	}
	h.log("room activation changed", room)
	return dto.MapRoom(room), nil
}

// Delete removes a room that holds no pending or confirmed bookings. Deactivate
// rooms that still have guests.
func (h *CommandHandler) Delete(ctx context.Context, cmd DeleteRoomCommand) (struct{}, error) {
	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer unit.Release()

	id := domainrooms.RoomID(cmd.ID)
	if _, err := unit.Rooms().ByID(unit.Ctx, id); err != nil {
		return struct{}{}, err
	}
	active, err := unit.Bookings().ActiveByRoom(unit.Ctx, id)
	if err != nil {
		return struct{}{}, err
	}
	if len(active) > 0 {
		return struct{}{}, domainrooms.ErrHasBookings
	}
	if err := unit.Rooms().Delete(unit.Ctx, id); err != nil {
		return struct{}{}, err
	}
	ev := domainrooms.RoomChanged{RoomID: id, Change: "deleted", At: h.now()}
	if err := outbox.RecordDomainEvents(unit.Ctx, h.Outbox, h.Encoder, []events.DomainEvent{ev}); err != nil {
		return struct{}{}, err
	}
	if err := unit.Commit(); err != nil {
		return struct{}{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("room deleted", "room_id", id)
	}
	return struct{}{}, nil
}

func (h *CommandHandler) persist(unit *support.Unit, room *domainrooms.Room) error {
	if err := unit.Rooms().Save(unit.Ctx, room); err != nil {
		return err
	}
	if err := outbox.RecordFrom(unit.Ctx, h.Outbox, h.Encoder, room); err != nil {
		return err
	}
	return unit.Commit()
}

func (h *CommandHandler) details(in RoomInput) (domainrooms.Details, error) {
	roomType, err := domainrooms.ParseType(in.Type)
	if err != nil {
		return domainrooms.Details{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = h.DefaultCurrency
	}
	price, err := money.Parse(in.PricePerNight, currency)
	if err != nil {
		return domainrooms.Details{}, &pricing.InvalidRateError{Reason: err.Error()}
	}
	return domainrooms.Details{
		Name:        in.Name,
		Slug:        in.Slug,
		Type:        roomType,
		Description: in.Description,
		Capacity:    in.Capacity,
		Amenities:   in.Amenities,
		Images:      in.Images,
		Rate:        pricing.RoomRate{PricePerNight: price, TaxRatePercent: in.TaxRatePercent},
	}, nil
}

func (h *CommandHandler) log(msg string, room *domainrooms.Room) {
	if h.Logger != nil {
		h.Logger.Info(msg, "room_id", room.ID, "slug", room.Slug, "active", room.Active)
	}
}

func (h *CommandHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *CommandHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}
