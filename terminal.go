package par

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tychoish/par/ers"
	"github.com/tychoish/par/opt"
	"github.com/tychoish/par/plumbing"
)

// Collect runs the iterator and returns its elements in order. The
// result is nil if the iterator is empty.
//
// Like all terminal operations, Collect returns the context's error if
// the context is canceled before the operation completes, returns an
// error rooted in ers.ErrRecoveredPanic if any part of the operation
// panics, and returns the error from the option providers, without
// running the iterator, if the engine configuration is invalid.
func Collect[T any](ctx context.Context, it Iterator[T], opts ...opt.Provider[*plumbing.Conf]) ([]T, error) {
	return run(ctx, it, foldConsumer[T, []T]{
		ctx:      ctx,
		identity: func() []T { return nil },
		fold:     func(acc []T, item T) []T { return append(acc, item) },
		reduce:   func(left, right []T) []T { return append(left, right...) },
	}, opts)
}

// Count runs the iterator and returns the number of elements it
// produces. For indexed iterators the length is returned without
// running the iterator.
func Count[T any](ctx context.Context, it Iterator[T], opts ...opt.Provider[*plumbing.Conf]) (int, error) {
	if idx, ok := it.(IndexedIterator[T]); ok {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return idx.Len(), nil
	}

	return run(ctx, it, foldConsumer[T, int]{
		ctx:      ctx,
		identity: func() int { return 0 },
		fold:     func(acc int, _ T) int { return acc + 1 },
		reduce:   func(left, right int) int { return left + right },
	}, opts)
}

// Reduce combines the elements of the iterator with op. The identity
// function is called once for every range, and op must be
// associative, (but need not be commutative,) because ranges are
// combined in order but in an unspecified grouping.
func Reduce[T any](ctx context.Context, it Iterator[T], identity func() T, op func(T, T) T, opts ...opt.Provider[*plumbing.Conf]) (T, error) {
	return run(ctx, it, foldConsumer[T, T]{
		ctx:      ctx,
		identity: identity,
		fold:     op,
		reduce:   op,
	}, opts)
}

// ForEach calls fn for every element. Calls happen concurrently from
// several goroutines, and in no particular order.
func ForEach[T any](ctx context.Context, it Iterator[T], fn func(T), opts ...opt.Provider[*plumbing.Conf]) error {
	_, err := run(ctx, it, foldConsumer[T, struct{}]{
		ctx:      ctx,
		identity: func() (out struct{}) { return },
		fold:     func(acc struct{}, item T) struct{} { fn(item); return acc },
		reduce:   func(left, _ struct{}) struct{} { return left },
	}, opts)
	return err
}

// Any returns true if the predicate is true for at least one element.
// Once a match is found, the remaining ranges stop early.
func Any[T any](ctx context.Context, it Iterator[T], pred func(T) bool, opts ...opt.Provider[*plumbing.Conf]) (bool, error) {
	found := &atomic.Bool{}

	return run(ctx, it, foldConsumer[T, bool]{
		ctx:      ctx,
		identity: func() bool { return false },
		fold: func(acc bool, item T) bool {
			if pred(item) {
				found.Store(true)
				return true
			}
			return acc
		},
		reduce: func(left, right bool) bool { return left || right },
		full:   found.Load,
	}, opts)
}

func run[T, A any](ctx context.Context, it Iterator[T], consumer foldConsumer[T, A], opts []opt.Provider[*plumbing.Conf]) (out A, err error) {
	eng, err := plumbing.NewEngine(opts...)
	if err != nil {
		return out, err
	}

	res, err := ers.WithRecoverDo(func() any { return it.DriveUnindexed(ctx, eng, consumer) })
	if err != nil {
		return out, err
	}
	if err = ctx.Err(); err != nil {
		return out, err
	}

	out, ok := res.(A)
	if !ok {
		return out, ers.NewInvariantViolation(fmt.Sprintf("operation produced %T, not %T", res, out))
	}
	return out, nil
}

// foldConsumer is the consumer for all terminal operations: each
// range folds into an accumulator, and accumulators are reduced in
// order. It reports full when the context is canceled, or when the
// optional full function returns true.
type foldConsumer[T, A any] struct {
	ctx      context.Context
	identity func() A
	fold     func(A, T) A
	reduce   func(A, A) A
	full     func() bool
}

func (c foldConsumer[T, A]) SplitAt(int) (plumbing.Consumer[T], plumbing.Consumer[T], plumbing.Reducer) {
	return c, c, c.ToReducer()
}

func (c foldConsumer[T, A]) SplitOffLeft() plumbing.UnindexedConsumer[T] { return c }

func (c foldConsumer[T, A]) ToReducer() plumbing.Reducer {
	return plumbing.ReducerFunc(func(left, right any) any { return c.reduce(left.(A), right.(A)) })
}

func (c foldConsumer[T, A]) IntoFolder() plumbing.Folder[T] {
	return foldFolder[T, A]{consumer: c, acc: c.identity()}
}

func (c foldConsumer[T, A]) Full() bool {
	return c.ctx.Err() != nil || (c.full != nil && c.full())
}

type foldFolder[T, A any] struct {
	consumer foldConsumer[T, A]
	acc      A
}

func (f foldFolder[T, A]) Consume(item T) plumbing.Folder[T] {
	f.acc = f.consumer.fold(f.acc, item)
	return f
}

func (f foldFolder[T, A]) Complete() any { return f.acc }
func (f foldFolder[T, A]) Full() bool    { return f.consumer.Full() }
