package middleware

import (
	"context"
	"errors"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/queries"
	"resortbook/internal/app/reqctx"
)

var (
	ErrUnauthenticated = errors.New("middleware: authentication required")
	ErrForbidden       = errors.New("middleware: insufficient permissions")
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Restricted messages need a principal. A non-empty RequiredRole also needs that role.
type Restricted interface {
	RequiredRole() string
}

// RoleAuthorizer enforces Restricted on messages; other messages pass.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	restricted, ok := message.(Restricted)
	if !ok {
		return nil
	}
	p, ok := reqctx.PrincipalFrom(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if role := restricted.RequiredRole(); role != "" && !p.HasRole(role) {
		return ErrForbidden
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
