package par

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/tychoish/par/plumbing"
)

// Slice provides a parallel iterator over the elements of a slice. The
// iterator is an IndexedIterator. The slice is not copied, and must not
// be modified while an operation is running.
func Slice[T any](items []T) Iterator[T] { return sliceIter[T]{items: items} }

// Range provides a parallel iterator over the integers in [lo, hi).
// When hi <= lo the iterator is empty. The iterator is an
// IndexedIterator.
func Range(lo, hi int) Iterator[int] { return rangeIter{lo: lo, hi: max(lo, hi)} }

// Seq provides a parallel iterator over a native go sequence. The
// sequence is consumed by one goroutine at a time, and the elements
// are distributed to whichever range asks next, so the order of
// elements in ordered results follows the order in which ranges
// happen to pull them, rather than the order of the sequence.
//
// Seq sources cannot be split by position, and always drive their
// consumers with unindexed splits.
func Seq[T any](seq iter.Seq[T]) Iterator[T] { return seqIter[T]{seq: seq} }

////////////////////////////////////////////////////////////////////////

type sliceIter[T any] struct{ items []T }

func (s sliceIter[T]) Len() int { return len(s.items) }

func (s sliceIter[T]) Drive(ctx context.Context, eng *plumbing.Engine, consumer plumbing.Consumer[T]) any {
	return plumbing.Bridge[T](ctx, eng, sliceProducer[T](s), consumer)
}

func (s sliceIter[T]) DriveUnindexed(ctx context.Context, eng *plumbing.Engine, consumer plumbing.UnindexedConsumer[T]) any {
	return s.Drive(ctx, eng, consumer)
}

type sliceProducer[T any] struct{ items []T }

func (p sliceProducer[T]) Len() int { return len(p.items) }

func (p sliceProducer[T]) SplitAt(idx int) (plumbing.Producer[T], plumbing.Producer[T]) {
	return sliceProducer[T]{items: p.items[:idx]}, sliceProducer[T]{items: p.items[idx:]}
}

func (p sliceProducer[T]) FoldWith(folder plumbing.Folder[T]) plumbing.Folder[T] {
	return plumbing.ConsumeAll(folder, slices.Values(p.items))
}

////////////////////////////////////////////////////////////////////////

type rangeIter struct{ lo, hi int }

func (r rangeIter) Len() int { return r.hi - r.lo }

func (r rangeIter) Drive(ctx context.Context, eng *plumbing.Engine, consumer plumbing.Consumer[int]) any {
	return plumbing.Bridge[int](ctx, eng, rangeProducer(r), consumer)
}

func (r rangeIter) DriveUnindexed(ctx context.Context, eng *plumbing.Engine, consumer plumbing.UnindexedConsumer[int]) any {
	return r.Drive(ctx, eng, consumer)
}

type rangeProducer struct{ lo, hi int }

func (p rangeProducer) Len() int { return p.hi - p.lo }

func (p rangeProducer) SplitAt(idx int) (plumbing.Producer[int], plumbing.Producer[int]) {
	return rangeProducer{lo: p.lo, hi: p.lo + idx}, rangeProducer{lo: p.lo + idx, hi: p.hi}
}

func (p rangeProducer) FoldWith(folder plumbing.Folder[int]) plumbing.Folder[int] {
	for i := p.lo; i < p.hi && !folder.Full(); i++ {
		folder = folder.Consume(i)
	}
	return folder
}

////////////////////////////////////////////////////////////////////////

type seqIter[T any] struct{ seq iter.Seq[T] }

func (s seqIter[T]) DriveUnindexed(ctx context.Context, eng *plumbing.Engine, consumer plumbing.UnindexedConsumer[T]) any {
	next, stop := iter.Pull(s.seq)
	defer stop()

	return plumbing.BridgeUnindexed[T](ctx, eng, seqProducer[T]{state: &pullState[T]{next: next}}, consumer)
}

// pullState serializes access to a pulled sequence shared by every
// range of one operation.
type pullState[T any] struct {
	mu   sync.Mutex
	next func() (T, bool)
	done bool
}

func (s *pullState[T]) pull() (out T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return out, false
	}

	out, ok = s.next()
	s.done = !ok
	return out, ok
}

func (s *pullState[T]) exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

type seqProducer[T any] struct{ state *pullState[T] }

func (p seqProducer[T]) Split() (plumbing.UnindexedProducer[T], plumbing.UnindexedProducer[T], bool) {
	if p.state.exhausted() {
		return p, nil, false
	}
	return p, p, true
}

func (p seqProducer[T]) FoldWith(folder plumbing.Folder[T]) plumbing.Folder[T] {
	for !folder.Full() {
		item, ok := p.state.pull()
		if !ok {
			break
		}
		folder = folder.Consume(item)
	}
	return folder
}
