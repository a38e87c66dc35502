package support

import (
	"context"

	"tinyhouse/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already bound to ctx, or opens a read-only one.
// The returned release func is nil when an outer unit is reused; callers check before deferring.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	bound := uow.Bind(ctx, unit)
	return unit, bound, func() { _ = unit.Rollback(bound) }, nil
}
