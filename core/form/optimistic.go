package form

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/trace/core"
)

// Optimistic runs a local-first mutation of a collection: mutate is applied to a copy
// of current and handed to apply right away, then commit sends it to the server.
// When commit fails the snapshot of current is handed back to apply and the error is
// returned; on success apply receives the server's copy.
func Optimistic[T any](
	ctx context.Context,
	current []T,
	mutate func([]T) ([]T, error),
	apply func([]T),
	commit func(context.Context, []T) ([]T, error),
) error {
	snapshot := append([]T(nil), current...)
	next, err := mutate(append([]T(nil), current...))
	if err != nil {
		return err
	}
	apply(next)

	saved, err := commit(ctx, next)
	if err != nil {
		apply(snapshot)
		return err
	}
	apply(saved)
	return nil
}

// RemoveAt returns a mutation that removes the item at index i.
func RemoveAt[T any](i int) func([]T) ([]T, error) {
	return func(items []T) ([]T, error) {
		if i < 0 || i >= len(items) {
			return nil, errors.Wrapf(core.NewArgumentError("index out of range"), "removing item %d of %d", i, len(items))
		}
		return append(items[:i], items[i+1:]...), nil
	}
}
