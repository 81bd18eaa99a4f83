package mongo

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resortbook/internal/app/uow"
	domainbooking "resortbook/internal/domain/booking"
	domainrooms "resortbook/internal/domain/rooms"
)

var (
	ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")
	ErrTransactionConflict     = errors.New("mongo: transaction aborted by a concurrent write")
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	RoomsRepo    domainrooms.Repository
	BookingsRepo domainbooking.Repository
}

// Begin starts a session with a transaction. Read-only units run without one.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.RoomsRepo == nil || f.BookingsRepo == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	unit := &Unit{rooms: f.RoomsRepo, bookings: f.BookingsRepo}
	if opts.ReadOnly {
		return unit, nil
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	unit.session = session
	return unit, nil
}

type Unit struct {
	mu      sync.Mutex
	session mongo.Session
	done    bool

	rooms    domainrooms.Repository
	bookings domainbooking.Repository
}

func (u *Unit) Rooms() domainrooms.Repository {
	return u.rooms
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.session == nil || u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	return commitError(u.session.CommitTransaction(ctx))
}

func commitError(err error) error {
	if err != nil && isWriteConflict(err) {
		return errors.Join(ErrTransactionConflict, uow.ErrCommitConflict, err)
	}
	return err
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.session == nil || u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext binds the session to ctx so repository calls join the transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	if u.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, u.session)
}
