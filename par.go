// Package par provides parallel iterators: sources of elements that
// can be divided recursively into independent ranges, processed on
// separate goroutines, and recombined in order, so that the result of
// a parallel operation is always identical to running it
// sequentially.
//
// Iterators are lazy. Sources (Slice, Range, Seq) and adapters (Map,
// Intersperse) do no work until a terminal operation (Collect, Count,
// Reduce, ForEach, Any) drives them. Terminal operations build a
// plumbing.Engine from their options, which controls how eagerly work
// is split, and convert panics raised anywhere in the split tree into
// errors.
//
// The plumbing package describes the producer/consumer protocol that
// adapters implement, and is only needed by code that defines new
// sources or adapters.
package par

import (
	"context"

	"github.com/tychoish/par/plumbing"
)

// Iterator is a parallel iterator. DriveUnindexed feeds every element
// into the consumer, splitting the consumer as the source divides,
// and returns the consumer's result.
type Iterator[T any] interface {
	DriveUnindexed(ctx context.Context, eng *plumbing.Engine, consumer plumbing.UnindexedConsumer[T]) any
}

// IndexedIterator is an Iterator with a known length, whose elements
// can be addressed by position. Drive splits the consumer only at
// positions, so the consumer need not support unindexed splitting.
type IndexedIterator[T any] interface {
	Iterator[T]
	Len() int
	Drive(ctx context.Context, eng *plumbing.Engine, consumer plumbing.Consumer[T]) any
}

// Cloner is implemented by values that need a fresh copy wherever the
// value is duplicated by an adapter, rather than a copy that might
// share state with the original (e.g. a pointer or a slice).
type Cloner[T any] interface {
	Clone() T
}

func duplicate[T any](in T) T {
	if c, ok := any(in).(Cloner[T]); ok {
		return c.Clone()
	}
	return in
}
