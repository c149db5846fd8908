package par

import (
	"context"

	"github.com/tychoish/par/ers"
	"github.com/tychoish/par/plumbing"
)

// ErrUnindexedSplit is the root of the error raised when an
// interspersed iterator is driven by a source that can only split
// without positions. Placing separators correctly depends on knowing,
// at every split, that the right half begins after at least one
// element of the left half, which an unindexed split cannot promise.
const ErrUnindexedSplit ers.Error = ers.Error("intersperse requires positional splits")

// Intersperse returns an iterator that produces the elements of the
// source with a copy of the separator between every pair of adjacent
// elements: a, b, c becomes a, sep, b, sep, c. Empty and one-element
// sources are unchanged.
//
// If the separator implements Cloner, every emitted separator, and
// every copy held by a split of the operation, is a fresh clone.
//
// The source must split by position: Slice, Range, and Map (or
// Intersperse) over those are supported. When the source splits
// without positions (e.g. Seq) the operation fails with an error
// rooted in ErrUnindexedSplit and ers.ErrNotImplemented, rather than
// placing separators incorrectly.
func Intersperse[T any](src Iterator[T], sep T) Iterator[T] {
	return intersperseIter[T]{base: src, sep: sep}
}

type intersperseIter[T any] struct {
	base Iterator[T]
	sep  T
}

func (it intersperseIter[T]) DriveUnindexed(ctx context.Context, eng *plumbing.Engine, consumer plumbing.UnindexedConsumer[T]) any {
	return it.base.DriveUnindexed(ctx, eng, newIntersperseConsumer[T](consumer, it.sep, noSeparator))
}

// separatorState records whether the next element must be preceded
// by a separator. Only the first element of the whole sequence is
// not.
type separatorState bool

const (
	noSeparator      separatorState = false
	pendingSeparator separatorState = true
)

type intersperseConsumer[T any] struct {
	base  plumbing.Consumer[T]
	sep   T
	state separatorState
}

func newIntersperseConsumer[T any](base plumbing.Consumer[T], sep T, state separatorState) intersperseConsumer[T] {
	return intersperseConsumer[T]{base: base, sep: duplicate(sep), state: state}
}

// baseIndex maps a split point among the incoming elements to the
// split point among the elements the base consumer receives: each
// element before the cut contributes itself and a separator, except
// the first one when no separator is owed.
func (c intersperseConsumer[T]) baseIndex(index int) int {
	if index == 0 || c.state == pendingSeparator {
		return 2 * index
	}
	return 2*index - 1
}

// SplitAt splits the base consumer first. The left half starts where
// this consumer starts and keeps its state; the right half starts
// after at least one element, so it always owes a separator. A cut at
// zero leaves the left half empty and the right half where this
// consumer started.
func (c intersperseConsumer[T]) SplitAt(index int) (plumbing.Consumer[T], plumbing.Consumer[T], plumbing.Reducer) {
	left, right, reducer := c.base.SplitAt(c.baseIndex(index))

	rstate := pendingSeparator
	if index == 0 {
		rstate = c.state
	}

	return newIntersperseConsumer(left, c.sep, c.state),
		newIntersperseConsumer(right, c.sep, rstate),
		reducer
}

func (c intersperseConsumer[T]) IntoFolder() plumbing.Folder[T] {
	return intersperseFolder[T]{base: c.base.IntoFolder(), sep: duplicate(c.sep), state: c.state}
}

func (c intersperseConsumer[T]) Full() bool { return c.base.Full() }

func (intersperseConsumer[T]) SplitOffLeft() plumbing.UnindexedConsumer[T] { panic(errUnindexedSplit()) }
func (intersperseConsumer[T]) ToReducer() plumbing.Reducer                 { panic(errUnindexedSplit()) }

func errUnindexedSplit() error { return ers.Join(ErrUnindexedSplit, ers.ErrNotImplemented) }

type intersperseFolder[T any] struct {
	base  plumbing.Folder[T]
	sep   T
	state separatorState
}

func (f intersperseFolder[T]) Consume(item T) plumbing.Folder[T] {
	base := f.base
	if f.state == pendingSeparator {
		base = base.Consume(duplicate(f.sep))
	}

	return intersperseFolder[T]{base: base.Consume(item), sep: f.sep, state: pendingSeparator}
}

// Complete discards the state: a separator is only ever written ahead
// of an element, so one that is still owed is never written.
func (f intersperseFolder[T]) Complete() any { return f.base.Complete() }

func (f intersperseFolder[T]) Full() bool { return f.base.Full() }
