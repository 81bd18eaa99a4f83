package memory

import (
	"context"
	"errors"
	"sync"

	"resortbook/internal/app/uow"
	domainbooking "resortbook/internal/domain/booking"
	domainrooms "resortbook/internal/domain/rooms"
)

var (
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
	ErrReadOnlyUnit         = errors.New("memory: write in read-only unit of work")
)

// Factory hands out units over shared in-memory repositories.
type Factory struct {
	Rooms    *RoomRepository
	Bookings *BookingRepository
}

// Begin starts a unit that stages writes and applies them on Commit. Reads always see
// committed state. There is no isolation beyond that.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Rooms == nil || f.Bookings == nil {
		return nil, ErrFactoryMisconfigured
	}
	u := &Unit{readOnly: opts.ReadOnly}
	u.rooms = stagedRooms{RoomRepository: f.Rooms, unit: u}
	u.bookings = stagedBookings{BookingRepository: f.Bookings, unit: u}
	return u, nil
}

type Unit struct {
	mu       sync.Mutex
	readOnly bool
	done     bool
	ops      []func(context.Context) error
	rooms    stagedRooms
	bookings stagedBookings
}

func (u *Unit) Rooms() domainrooms.Repository      { return u.rooms }
func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) stage(op func(context.Context) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	u.ops = append(u.ops, op)
	return nil
}

// Commit applies staged writes in order and stops at the first failure.
func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	ops := u.ops
	u.ops = nil
	for _, op := range ops {
		if err := op(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	u.ops = nil
	return nil
}

type stagedRooms struct {
	*RoomRepository
	unit *Unit
}

func (s stagedRooms) Save(ctx context.Context, room *domainrooms.Room) error {
	return s.unit.stage(func(ctx context.Context) error { return s.RoomRepository.Save(ctx, room) })
}

func (s stagedRooms) Delete(ctx context.Context, id domainrooms.RoomID) error {
	return s.unit.stage(func(ctx context.Context) error { return s.RoomRepository.Delete(ctx, id) })
}

type stagedBookings struct {
	*BookingRepository
	unit *Unit
}

func (s stagedBookings) Create(ctx context.Context, b *domainbooking.Booking) error {
	return s.unit.stage(func(ctx context.Context) error { return s.BookingRepository.Create(ctx, b) })
}

func (s stagedBookings) Save(ctx context.Context, b *domainbooking.Booking) error {
	return s.unit.stage(func(ctx context.Context) error { return s.BookingRepository.Save(ctx, b) })
}

var _ uow.UoWFactory = Factory{}
