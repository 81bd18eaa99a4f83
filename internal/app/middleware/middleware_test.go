package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/outbox"
	"resortbook/internal/app/queries"
	"resortbook/internal/app/reqctx"
	"resortbook/internal/app/uow"
	"resortbook/internal/domain/booking"
	"resortbook/internal/domain/rooms"
)

type result struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

type createThing struct {
	Name string `json:"name" validate:"required,max=5"`
	Qty  int    `json:"qty" validate:"min=1"`
	Idem string `json:"-"`
	Role string `json:"-"`
}

func (c createThing) Key() string            { return "thing.create" }
func (c createThing) IdempotencyKey() string { return c.Idem }
func (c createThing) ResultPrototype() any   { return &result{} }
func (c createThing) RequiredRole() string   { return c.Role }

type openCommand struct{}

func (openCommand) Key() string { return "open" }

type countingBus struct {
	calls int
	err   error
	ctx   context.Context
}

func (b *countingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.calls++
	b.ctx = ctx
	if b.err != nil {
		return nil, b.err
	}
	return result{ID: "r-1", Count: b.calls}, nil
}

type fakeIdempotencyStore struct {
	mu      sync.Mutex
	items   map[string]IdempotencyRecord
	saveErr error
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *fakeIdempotencyStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.items == nil {
		s.items = map[string]IdempotencyRecord{}
	}
	s.items[rec.Key] = rec
	return nil
}

func asGuest(id string) context.Context {
	return reqctx.WithPrincipal(context.Background(), reqctx.Principal{ID: id, Roles: []string{reqctx.RoleGuest}})
}

func TestIdempotency_ReplaysStoredResult(t *testing.T) {
	base := &countingBus{}
	store := &fakeIdempotencyStore{}
	bus := ChainCommands(base, Idempotency(store, nil, time.Hour, nil))
	ctx := asGuest("guest-1")
	cmd := createThing{Name: "a", Qty: 1, Idem: "key-1"}

	first, err := bus.Dispatch(ctx, cmd)
	require.NoError(t, err)
	second, err := bus.Dispatch(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, base.calls)
	assert.Equal(t, first, second)
	assert.IsType(t, result{}, second)

	_, err = bus.Dispatch(asGuest("guest-2"), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, base.calls, "keys are scoped per caller")

	_, err = bus.Dispatch(ctx, createThing{Name: "a", Qty: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, base.calls, "commands without a key always run")
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	base := &countingBus{err: errors.New("boom")}
	store := &fakeIdempotencyStore{}
	bus := ChainCommands(base, Idempotency(store, nil, 0, nil))
	cmd := createThing{Name: "a", Qty: 1, Idem: "key-1"}

	_, err := bus.Dispatch(asGuest("guest-1"), cmd)
	require.Error(t, err)

	base.err = nil
	_, err = bus.Dispatch(asGuest("guest-1"), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, base.calls)
}

func TestIdempotency_ExpiredRecordRunsAgain(t *testing.T) {
	base := &countingBus{}
	store := &fakeIdempotencyStore{}
	cmd := createThing{Name: "a", Qty: 1, Idem: "key-1"}
	require.NoError(t, store.Save(context.Background(), IdempotencyRecord{
		Key:        "guest-1:thing.create:key-1",
		Payload:    []byte(`{"id":"old","count":9}`),
		OccurredAt: time.Now().Add(-2 * time.Hour),
	}))

	res, err := ChainCommands(base, Idempotency(store, nil, time.Hour, nil)).Dispatch(asGuest("guest-1"), cmd)
	require.NoError(t, err)
	assert.Equal(t, result{ID: "r-1", Count: 1}, res)
}

func TestIdempotency_StoreFailureKeepsResult(t *testing.T) {
	base := &countingBus{}
	store := &fakeIdempotencyStore{saveErr: errors.New("store down")}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	bus := ChainCommands(base, Idempotency(store, nil, time.Hour, logger))
	cmd := createThing{Name: "a", Qty: 1, Idem: "key-1"}

	res, err := bus.Dispatch(asGuest("guest-1"), cmd)
	require.NoError(t, err)
	assert.Equal(t, result{ID: "r-1", Count: 1}, res)
	assert.Contains(t, logs.String(), "idempotency record not stored")
	assert.Contains(t, logs.String(), "store down")

	store.saveErr = nil
	_, err = bus.Dispatch(asGuest("guest-1"), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, base.calls, "an unrecorded result is not replayed")
}

func TestAuthorization(t *testing.T) {
	base := &countingBus{}
	bus := ChainCommands(base, Authorization(RoleAuthorizer{}))

	_, err := bus.Dispatch(context.Background(), createThing{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = bus.Dispatch(asGuest("guest-1"), createThing{Role: reqctx.RoleAdmin})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := reqctx.WithPrincipal(context.Background(), reqctx.Principal{ID: "staff", Roles: []string{"Admin"}})
	_, err = bus.Dispatch(admin, createThing{Role: reqctx.RoleAdmin})
	assert.NoError(t, err)

	_, err = bus.Dispatch(context.Background(), openCommand{})
	assert.NoError(t, err)
	assert.Equal(t, 2, base.calls)
}

func TestValidation_ReportsJSONFieldNames(t *testing.T) {
	base := &countingBus{}
	bus := ChainCommands(base, Validation(NewStructValidator()))

	_, err := bus.Dispatch(context.Background(), createThing{Name: "toolong", Qty: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 2)
	assert.Equal(t, FieldViolation{Field: "name", Rule: "max", Param: "5"}, verr.Violations[0])
	assert.Equal(t, FieldViolation{Field: "qty", Rule: "min", Param: "1"}, verr.Violations[1])
	assert.Contains(t, verr.Error(), "name: max=5")
	assert.Zero(t, base.calls)

	_, err = bus.Dispatch(context.Background(), openCommand{})
	assert.NoError(t, err)
}

type recordingUnit struct {
	committed   bool
	rolledBack  bool
	commitErr   error
	rollbackErr error
}

func (u *recordingUnit) Rooms() rooms.Repository      { return nil }
func (u *recordingUnit) Bookings() booking.Repository { return nil }
func (u *recordingUnit) Commit(context.Context) error {
	u.committed = true
	return u.commitErr
}
func (u *recordingUnit) Rollback(context.Context) error {
	u.rolledBack = true
	return u.rollbackErr
}

type recordingFactory struct {
	units []*recordingUnit
}

func (f *recordingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &recordingUnit{}
	f.units = append(f.units, u)
	return u, nil
}

type selfTransacted struct{ openCommand }

func (selfTransacted) SelfTransacted() bool { return true }

func TestTransaction(t *testing.T) {
	factory := &recordingFactory{}
	base := &countingBus{}
	bus := ChainCommands(base, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), openCommand{})
	require.NoError(t, err)
	require.Len(t, factory.units, 1)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
	unit, ok := uow.FromContext(base.ctx)
	require.True(t, ok)
	assert.Same(t, factory.units[0], unit)

	base.err = errors.New("boom")
	_, err = bus.Dispatch(context.Background(), openCommand{})
	require.Error(t, err)
	require.Len(t, factory.units, 2)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)

	base.err = nil
	_, err = bus.Dispatch(context.Background(), selfTransacted{})
	require.NoError(t, err)
	assert.Len(t, factory.units, 2, "self-transacted commands get no unit")
	_, ok = uow.FromContext(base.ctx)
	assert.False(t, ok)
}

func TestTransaction_JoinsOuterUnit(t *testing.T) {
	factory := &recordingFactory{}
	base := &countingBus{}
	bus := ChainCommands(base, Transaction(factory, nil))

	outer := &recordingUnit{}
	ctx := uow.ContextWithUnitOfWork(context.Background(), outer)
	_, err := bus.Dispatch(ctx, openCommand{})
	require.NoError(t, err)
	assert.Empty(t, factory.units)
	assert.False(t, outer.committed, "the owner commits")
}

func TestTransaction_CommitAndRollbackFailures(t *testing.T) {
	commitErr := errors.New("write conflict")
	rollbackErr := errors.New("session lost")
	factory := &failingFactory{unit: &recordingUnit{commitErr: commitErr, rollbackErr: rollbackErr}}
	bus := ChainCommands(&countingBus{}, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), openCommand{})
	require.Error(t, err)
	assert.ErrorIs(t, err, commitErr)
	assert.ErrorIs(t, err, rollbackErr)
	assert.True(t, factory.unit.rolledBack)
}

type failingFactory struct {
	unit *recordingUnit
}

func (f *failingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	return f.unit, nil
}

type countingOutbox struct {
	flushes int
	err     error
}

func (o *countingOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (o *countingOutbox) Flush(context.Context) error {
	o.flushes++
	return o.err
}

func TestOutboxFlush_OnlyOnSuccess(t *testing.T) {
	box := &countingOutbox{}
	base := &countingBus{err: errors.New("boom")}
	bus := ChainCommands(base, OutboxFlush(box, nil))

	_, err := bus.Dispatch(context.Background(), openCommand{})
	require.Error(t, err)
	assert.Zero(t, box.flushes)

	base.err = nil
	_, err = bus.Dispatch(context.Background(), openCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushes)
}

func TestOutboxFlush_DeliveryFailureKeepsResult(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	box := &countingOutbox{err: errors.New("sink down")}
	bus := ChainCommands(&countingBus{}, OutboxFlush(box, logger))

	_, err := bus.Dispatch(context.Background(), openCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushes)
	assert.Contains(t, logs.String(), "outbox flush failed")
	assert.Contains(t, logs.String(), "sink down")
}

type adminQuery struct {
	Limit int `json:"limit" validate:"min=0,max=10"`
}

func (adminQuery) Key() string          { return "admin.query" }
func (adminQuery) RequiredRole() string { return reqctx.RoleAdmin }

type queryBusFunc func(ctx context.Context, q queries.Query) (any, error)

func (f queryBusFunc) Ask(ctx context.Context, q queries.Query) (any, error) { return f(ctx, q) }

func TestQueryChain(t *testing.T) {
	calls := 0
	base := queryBusFunc(func(context.Context, queries.Query) (any, error) {
		calls++
		return "ok", nil
	})
	bus := ChainQueries(base, QueryLogging(nil), QueryAuthorization(RoleAuthorizer{}), QueryValidation(NewStructValidator()))

	_, err := bus.Ask(asGuest("guest-1"), adminQuery{})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := reqctx.WithPrincipal(context.Background(), reqctx.Principal{ID: "staff", Roles: []string{reqctx.RoleAdmin}})
	_, err = bus.Ask(admin, adminQuery{Limit: 50})
	assert.ErrorIs(t, err, ErrValidation)

	res, err := bus.Ask(admin, adminQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 1, calls)
}
