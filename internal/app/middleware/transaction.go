package middleware

import (
	"context"
	"errors"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// SelfTransacted commands open and commit their own unit of work, e.g. to commit
// while still holding a lock.
type SelfTransacted interface {
	SelfTransacted() bool
}

// Transaction runs each command in a unit of work committed after the handler
// succeeds. A command dispatched while a unit is already in ctx joins that unit and
// leaves the commit to its owner.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if st, ok := cmd.(SelfTransacted); ok && st.SelfTransacted() {
				return nextFn(ctx, cmd)
			}
			if _, joined := uow.FromContext(ctx); joined {
				return nextFn(ctx, cmd)
			}

			var opts uow.TxOptions
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := uow.Inject(ctx, unit)

			res, err := nextFn(execCtx, cmd)
			if err == nil {
				err = unit.Commit(execCtx)
				if err == nil {
					return res, nil
				}
			}
			if rbErr := unit.Rollback(execCtx); rbErr != nil {
				return nil, errors.Join(err, rbErr)
			}
			return nil, err
		})
	}
}
