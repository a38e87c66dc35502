package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type unitKey struct{}

// ContextInjector is implemented by units that carry driver state (a Mongo session)
// which repositories read back from the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// ContextWithUnitOfWork stores unit in ctx without touching driver state.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// Bind injects the unit's driver state into ctx and stores the unit itself.
// Handlers and middleware call it right after Begin.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}
