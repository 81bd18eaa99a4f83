package uow

import (
	"context"
	"errors"

	"resortbook/internal/domain/booking"
	"resortbook/internal/domain/rooms"
)

// ErrCommitConflict is joined into a Commit error when the store aborted the unit
// because of a concurrent write.
var ErrCommitConflict = errors.New("uow: commit aborted by a concurrent write")

// UnitOfWork groups repository access under one transaction boundary.
type UnitOfWork interface {
	Rooms() rooms.Repository
	Bookings() booking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
