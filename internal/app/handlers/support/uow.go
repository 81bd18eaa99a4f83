package support

import (
	"context"

	"resortbook/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already in ctx or opens a read-only one. The
// returned cleanup is nil when the unit was borrowed.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	return begin(ctx, factory, uow.TxOptions{ReadOnly: true})
}

// Unit is a write unit that may or may not be owned by the caller.
type Unit struct {
	uow.UnitOfWork
	Ctx     context.Context
	managed bool
}

// BeginUnit reuses the unit already in ctx (owned by the transaction middleware) or
// opens one the caller must Commit or Release.
func BeginUnit(ctx context.Context, factory uow.UoWFactory) (*Unit, error) {
	unit, execCtx, cleanup, err := begin(ctx, factory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Unit{UnitOfWork: unit, Ctx: execCtx, managed: cleanup != nil}, nil
}

// Commit commits only units opened by BeginUnit.
func (u *Unit) Commit() error {
	if !u.managed {
		return nil
	}
	if err := u.UnitOfWork.Commit(u.Ctx); err != nil {
		return err
	}
	u.managed = false
	return nil
}

// Release rolls back an owned unit that was not committed.
func (u *Unit) Release() {
	if u.managed {
		_ = u.UnitOfWork.Rollback(u.Ctx)
		u.managed = false
	}
}

func begin(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Inject(ctx, unit)
	cleanup := func() {
		_ = unit.Rollback(execCtx)
	}
	return unit, execCtx, cleanup, nil
}
