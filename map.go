package par

import (
	"context"
	"fmt"

	"github.com/tychoish/par/ers"
	"github.com/tychoish/par/plumbing"
)

// Map returns an iterator that produces the result of the function
// for each element of the source. The function may be called
// concurrently from several goroutines, and must be safe for that.
//
// When the source is an IndexedIterator, so is the result.
func Map[T, O any](src Iterator[T], fn func(T) O) Iterator[O] {
	mi := mapIter[T, O]{base: src, fn: fn}
	if idx, ok := src.(IndexedIterator[T]); ok {
		return indexedMapIter[T, O]{mapIter: mi, indexed: idx}
	}
	return mi
}

type mapIter[T, O any] struct {
	base Iterator[T]
	fn   func(T) O
}

func (m mapIter[T, O]) DriveUnindexed(ctx context.Context, eng *plumbing.Engine, consumer plumbing.UnindexedConsumer[O]) any {
	return m.base.DriveUnindexed(ctx, eng, mapConsumer[T, O]{base: consumer, fn: m.fn})
}

type indexedMapIter[T, O any] struct {
	mapIter[T, O]
	indexed IndexedIterator[T]
}

func (m indexedMapIter[T, O]) Len() int { return m.indexed.Len() }

func (m indexedMapIter[T, O]) Drive(ctx context.Context, eng *plumbing.Engine, consumer plumbing.Consumer[O]) any {
	return m.indexed.Drive(ctx, eng, mapConsumer[T, O]{base: consumer, fn: m.fn})
}

type mapConsumer[T, O any] struct {
	base plumbing.Consumer[O]
	fn   func(T) O
}

func (c mapConsumer[T, O]) SplitAt(index int) (plumbing.Consumer[T], plumbing.Consumer[T], plumbing.Reducer) {
	left, right, reducer := c.base.SplitAt(index)
	return mapConsumer[T, O]{base: left, fn: c.fn}, mapConsumer[T, O]{base: right, fn: c.fn}, reducer
}

func (c mapConsumer[T, O]) IntoFolder() plumbing.Folder[T] {
	return mapFolder[T, O]{base: c.base.IntoFolder(), fn: c.fn}
}

func (c mapConsumer[T, O]) Full() bool { return c.base.Full() }

func (c mapConsumer[T, O]) SplitOffLeft() plumbing.UnindexedConsumer[T] {
	return mapConsumer[T, O]{base: c.unindexed().SplitOffLeft(), fn: c.fn}
}

func (c mapConsumer[T, O]) ToReducer() plumbing.Reducer { return c.unindexed().ToReducer() }

func (c mapConsumer[T, O]) unindexed() plumbing.UnindexedConsumer[O] {
	uc, ok := c.base.(plumbing.UnindexedConsumer[O])
	ers.Invariant(ok, fmt.Sprintf("map consumer over %T cannot split without an index", c.base))
	return uc
}

type mapFolder[T, O any] struct {
	base plumbing.Folder[O]
	fn   func(T) O
}

func (f mapFolder[T, O]) Consume(item T) plumbing.Folder[T] {
	return mapFolder[T, O]{base: f.base.Consume(f.fn(item)), fn: f.fn}
}

func (f mapFolder[T, O]) Complete() any { return f.base.Complete() }
func (f mapFolder[T, O]) Full() bool    { return f.base.Full() }
