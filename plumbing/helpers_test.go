package plumbing

import (
	"slices"
	"sync/atomic"
)

type sliceProducer[T any] struct{ items []T }

func (p sliceProducer[T]) Len() int { return len(p.items) }
func (p sliceProducer[T]) SplitAt(idx int) (Producer[T], Producer[T]) {
	return sliceProducer[T]{items: p.items[:idx]}, sliceProducer[T]{items: p.items[idx:]}
}
func (p sliceProducer[T]) FoldWith(f Folder[T]) Folder[T] { return ConsumeAll(f, slices.Values(p.items)) }

// chunkProducer splits by handing off half of what remains, without
// reference to an index.
type chunkProducer[T any] struct{ items []T }

func (p chunkProducer[T]) Split() (UnindexedProducer[T], UnindexedProducer[T], bool) {
	if len(p.items) < 2 {
		return p, nil, false
	}
	mid := len(p.items) / 2
	return chunkProducer[T]{items: p.items[:mid]}, chunkProducer[T]{items: p.items[mid:]}, true
}
func (p chunkProducer[T]) FoldWith(f Folder[T]) Folder[T] { return ConsumeAll(f, slices.Values(p.items)) }

type collectConsumer struct {
	leaves *atomic.Int64
	splits *atomic.Int64
}

func newCollectConsumer() collectConsumer {
	return collectConsumer{leaves: &atomic.Int64{}, splits: &atomic.Int64{}}
}

var concat = ReducerFunc(func(left, right any) any {
	return append(left.([]int), right.([]int)...)
})

func (c collectConsumer) SplitAt(int) (Consumer[int], Consumer[int], Reducer) {
	c.splits.Add(1)
	return c, c, concat
}
func (c collectConsumer) IntoFolder() Folder[int] { c.leaves.Add(1); return &collectFolder{} }
func (collectConsumer) Full() bool                 { return false }
func (c collectConsumer) SplitOffLeft() UnindexedConsumer[int] {
	c.splits.Add(1)
	return c
}
func (collectConsumer) ToReducer() Reducer { return concat }

type collectFolder struct{ out []int }

func (f *collectFolder) Consume(item int) Folder[int] { f.out = append(f.out, item); return f }
func (f *collectFolder) Complete() any {
	if f.out == nil {
		return []int{}
	}
	return f.out
}
func (*collectFolder) Full() bool { return false }

// limitConsumer becomes full once a shared number of elements has been
// consumed by any of its folders.
type limitConsumer struct {
	seen  *atomic.Int64
	limit int64
}

func (c limitConsumer) SplitAt(int) (Consumer[int], Consumer[int], Reducer) { return c, c, concat }
func (c limitConsumer) IntoFolder() Folder[int]                             { return &limitFolder{parent: c} }
func (c limitConsumer) Full() bool                                          { return c.seen.Load() >= c.limit }

type limitFolder struct {
	parent limitConsumer
	out    []int
}

func (f *limitFolder) Consume(item int) Folder[int] {
	f.parent.seen.Add(1)
	f.out = append(f.out, item)
	return f
}
func (f *limitFolder) Complete() any { return append([]int{}, f.out...) }
func (f *limitFolder) Full() bool    { return f.parent.Full() }

// panicConsumer panics in the folder for one specific element.
type panicConsumer struct {
	target int
}

func (c panicConsumer) SplitAt(int) (Consumer[int], Consumer[int], Reducer) { return c, c, concat }
func (c panicConsumer) IntoFolder() Folder[int]                             { return &panicFolder{parent: c} }
func (panicConsumer) Full() bool                                            { return false }

type panicFolder struct {
	parent panicConsumer
	out    []int
}

func (f *panicFolder) Consume(item int) Folder[int] {
	if item == f.parent.target {
		panic(errTargetReached)
	}
	f.out = append(f.out, item)
	return f
}
func (f *panicFolder) Complete() any { return f.out }
func (*panicFolder) Full() bool      { return false }

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
