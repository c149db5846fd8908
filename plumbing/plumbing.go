// Package plumbing defines the protocol that connects parallel
// iterators to the operations that consume them, along with the
// divide-and-conquer engine that drives both sides.
//
// A Producer describes where elements come from, and can be split at
// an index into two independent halves. A Consumer describes what
// happens to the elements, and can be split at the same index so that
// each half of the producer feeds its own half of the consumer. When
// a range is too small to split further, the consumer becomes a
// Folder, which accepts elements one at a time and completes into a
// partial result. Partial results are merged by the Reducer returned
// from each split, in the same shape as the splits.
//
// Sources whose length is not known up front use the unindexed
// variants: UnindexedProducer splits without an index, and
// UnindexedConsumer splits off a left sibling without knowing where
// the cut falls.
//
// Results travel through the protocol as untyped values. The terminal
// operations in the par package construct the consumers and restore
// the static type of the final result.
package plumbing

import "iter"

// Folder accumulates the elements of a range that will not be split
// any further. Consume returns the updated folder, rather than
// mutating in place, and Complete produces the result for the range.
type Folder[T any] interface {
	Consume(item T) Folder[T]
	Complete() any
	Full() bool
}

// Reducer merges the results of the left and right halves of a split.
type Reducer interface {
	Reduce(left, right any) any
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc func(left, right any) any

// Reduce calls the underlying function.
func (rf ReducerFunc) Reduce(left, right any) any { return rf(left, right) }

// Consumer is the splittable destination for a range of elements.
//
// SplitAt divides the consumer into one that receives elements
// [0, index) and one that receives [index, end), and returns the
// reducer for their results. IntoFolder converts the consumer for
// sequential use. Full reports that no more elements are needed, and
// is used by the engine to stop early.
type Consumer[T any] interface {
	SplitAt(index int) (left Consumer[T], right Consumer[T], reducer Reducer)
	IntoFolder() Folder[T]
	Full() bool
}

// UnindexedConsumer is a Consumer that can also be split without an
// index. SplitOffLeft returns a consumer for elements that precede
// all of the elements that the receiver will see, and ToReducer
// returns the reducer that merges the two.
type UnindexedConsumer[T any] interface {
	Consumer[T]
	SplitOffLeft() UnindexedConsumer[T]
	ToReducer() Reducer
}

// Producer is a source of a known number of elements that can be
// split at any index.
type Producer[T any] interface {
	Len() int
	SplitAt(index int) (left Producer[T], right Producer[T])
	FoldWith(folder Folder[T]) Folder[T]
}

// UnindexedProducer is a source of elements that can be divided, but
// without reference to a position. Split returns false when the
// producer cannot be divided any further, and the first return value
// holds all remaining work.
type UnindexedProducer[T any] interface {
	Split() (UnindexedProducer[T], UnindexedProducer[T], bool)
	FoldWith(folder Folder[T]) Folder[T]
}

// ConsumeAll feeds every element of the sequence into the folder,
// stopping as soon as the folder reports that it is full.
func ConsumeAll[T any](folder Folder[T], seq iter.Seq[T]) Folder[T] {
	for item := range seq {
		if folder.Full() {
			break
		}
		folder = folder.Consume(item)
	}
	return folder
}
