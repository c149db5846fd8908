package par

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tychoish/par/assert"
	"github.com/tychoish/par/ers"
	"github.com/tychoish/par/opt"
	"github.com/tychoish/par/plumbing"
)

func collector[T any](ctx context.Context) foldConsumer[T, []T] {
	return foldConsumer[T, []T]{
		ctx:      ctx,
		identity: func() []T { return nil },
		fold:     func(acc []T, item T) []T { return append(acc, item) },
		reduce:   func(left, right []T) []T { return append(left, right...) },
	}
}

func foldRange[T any](c plumbing.Consumer[T], items []T) []T {
	out, _ := plumbing.ConsumeAll(c.IntoFolder(), slices.Values(items)).Complete().([]T)
	return out
}

func sequential[T any](items []T, sep T) []T {
	var out []T
	for idx, item := range items {
		if idx > 0 {
			out = append(out, sep)
		}
		out = append(out, item)
	}
	return out
}

func letters(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i%26))
	}
	return out
}

// splitRandomly divides the range at random points, to random depths,
// and merges the results with the reducers from each split.
func splitRandomly[T any](rng *rand.Rand, c plumbing.Consumer[T], items []T) []T {
	if len(items) < 2 || rng.Intn(5) == 0 {
		return foldRange(c, items)
	}

	k := 1 + rng.Intn(len(items)-1)
	left, right, reducer := c.SplitAt(k)
	out, _ := reducer.Reduce(splitRandomly(rng, left, items[:k]), splitRandomly(rng, right, items[k:])).([]T)
	return out
}

func lockedSplitPoint(seed int64) func(int) int {
	rng := rand.New(rand.NewSource(seed))
	mu := &sync.Mutex{}
	return func(length int) int {
		mu.Lock()
		defer mu.Unlock()
		return 1 + rng.Intn(length-1)
	}
}

type marker struct{ label string }

func (m *marker) Clone() *marker { return &marker{label: m.label} }

type recordingConsumer struct {
	foldConsumer[string, []string]
	indexes *[]int
}

func (c recordingConsumer) SplitAt(index int) (plumbing.Consumer[string], plumbing.Consumer[string], plumbing.Reducer) {
	*c.indexes = append(*c.indexes, index)
	return c, c, c.ToReducer()
}

func TestIntersperse(t *testing.T) {
	t.Run("Folder", func(t *testing.T) {
		t.Run("Placement", func(t *testing.T) {
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", noSeparator)
			assert.EqualItems(t, foldRange[string](c, []string{"a", "b", "c"}), []string{"a", "x", "b", "x", "c"})
		})
		t.Run("Empty", func(t *testing.T) {
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", noSeparator)
			assert.Equal(t, len(foldRange[string](c, nil)), 0)
		})
		t.Run("EmptyOwingSeparator", func(t *testing.T) {
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", pendingSeparator)
			assert.Equal(t, len(foldRange[string](c, nil)), 0)
		})
		t.Run("SingleElement", func(t *testing.T) {
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", noSeparator)
			assert.EqualItems(t, foldRange[string](c, []string{"a"}), []string{"a"})
		})
		t.Run("OwingSeparator", func(t *testing.T) {
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", pendingSeparator)
			assert.EqualItems(t, foldRange[string](c, []string{"c", "d"}), []string{"x", "c", "x", "d"})
		})
		t.Run("StateTransitions", func(t *testing.T) {
			var f plumbing.Folder[string] = intersperseFolder[string]{
				base:  collector[string](t.Context()).IntoFolder(),
				sep:   "x",
				state: noSeparator,
			}
			f = f.Consume("a")
			assert.Equal(t, f.(intersperseFolder[string]).state, pendingSeparator)
			f = f.Consume("b")
			assert.Equal(t, f.(intersperseFolder[string]).state, pendingSeparator)
			assert.EqualItems(t, f.Complete().([]string), []string{"a", "x", "b"})
		})
	})
	t.Run("Split", func(t *testing.T) {
		t.Run("Example", func(t *testing.T) {
			items := []string{"a", "b", "c", "d"}
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", noSeparator)
			left, right, reducer := c.SplitAt(2)

			lout := foldRange(left, items[:2])
			rout := foldRange(right, items[2:])
			assert.EqualItems(t, lout, []string{"a", "x", "b"})
			assert.EqualItems(t, rout, []string{"x", "c", "x", "d"})
			assert.EqualItems(t, reducer.Reduce(lout, rout).([]string), sequential(items, "x"))
		})
		t.Run("EveryPoint", func(t *testing.T) {
			for n := 2; n < 12; n++ {
				items := letters(n)
				for k := 1; k < n; k++ {
					c := newIntersperseConsumer[string](collector[string](t.Context()), "-", noSeparator)
					left, right, reducer := c.SplitAt(k)
					out := reducer.Reduce(foldRange(left, items[:k]), foldRange(right, items[k:]))
					assert.EqualItems(t, out.([]string), sequential(items, "-"))
				}
			}
		})
		t.Run("States", func(t *testing.T) {
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", noSeparator)
			left, right, _ := c.SplitAt(3)
			assert.Equal(t, left.(intersperseConsumer[string]).state, noSeparator)
			assert.Equal(t, right.(intersperseConsumer[string]).state, pendingSeparator)

			left, right, _ = right.SplitAt(1)
			assert.Equal(t, left.(intersperseConsumer[string]).state, pendingSeparator)
			assert.Equal(t, right.(intersperseConsumer[string]).state, pendingSeparator)
		})
		t.Run("AtZero", func(t *testing.T) {
			items := []string{"a", "b"}
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", noSeparator)
			left, right, reducer := c.SplitAt(0)
			assert.Equal(t, right.(intersperseConsumer[string]).state, noSeparator)
			out := reducer.Reduce(foldRange(left, nil), foldRange(right, items))
			assert.EqualItems(t, out.([]string), []string{"a", "x", "b"})
		})
		t.Run("BaseIndex", func(t *testing.T) {
			indexes := []int{}
			base := recordingConsumer{foldConsumer: collector[string](t.Context()), indexes: &indexes}
			c := newIntersperseConsumer[string](base, "x", noSeparator)

			// [a b c | d e]: a x b x c is 5 elements
			_, right, _ := c.SplitAt(3)
			// [d | e] owing a separator: x d is 2 elements
			right.SplitAt(1)
			c.SplitAt(0)

			assert.EqualItems(t, indexes, []int{5, 2, 0})
		})
		t.Run("Recursive", func(t *testing.T) {
			rng := rand.New(rand.NewSource(1138))
			for i := 0; i < 500; i++ {
				items := letters(rng.Intn(40))
				c := newIntersperseConsumer[string](collector[string](t.Context()), "|", noSeparator)
				assert.EqualItems(t, splitRandomly[string](rng, c, items), sequential(items, "|"))
			}
		})
	})
	t.Run("Full", func(t *testing.T) {
		t.Run("Forwarded", func(t *testing.T) {
			full := &atomic.Bool{}
			base := collector[int](t.Context())
			base.full = full.Load

			c := newIntersperseConsumer[int](base, 0, noSeparator)
			left, right, _ := c.SplitAt(4)
			folder := right.IntoFolder()

			for _, check := range []func() bool{c.Full, left.Full, right.Full, folder.Full} {
				assert.True(t, !check())
			}

			full.Store(true)
			for _, check := range []func() bool{c.Full, left.Full, right.Full, folder.Full} {
				assert.True(t, check())
			}
		})
		t.Run("ShortCircuit", func(t *testing.T) {
			calls := &atomic.Int64{}
			ok, err := Any(t.Context(), Intersperse(Range(0, 1_000_000), -1), func(i int) bool {
				calls.Add(1)
				return i == 10
			}, plumbing.ConfNumWorkers(1))
			assert.NotError(t, err)
			assert.True(t, ok)
			assert.True(t, calls.Load() < 1_000_000)
		})
	})
	t.Run("Unindexed", func(t *testing.T) {
		t.Run("SplitOffLeft", func(t *testing.T) {
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", noSeparator)
			for i := 0; i < 3; i++ {
				assert.PanicErrorIs(t, func() { c.SplitOffLeft() }, ErrUnindexedSplit)
				assert.PanicErrorIs(t, func() { c.SplitOffLeft() }, ers.ErrNotImplemented)
			}
		})
		t.Run("ToReducer", func(t *testing.T) {
			c := newIntersperseConsumer[string](collector[string](t.Context()), "x", pendingSeparator)
			assert.PanicErrorIs(t, func() { c.ToReducer() }, ErrUnindexedSplit)
		})
		t.Run("SeqSource", func(t *testing.T) {
			for _, size := range []int{0, 1, 2, 100} {
				for _, workers := range []int{1, 8} {
					out, err := Collect(t.Context(), Intersperse(Seq(slices.Values(letters(size))), "x"), plumbing.ConfNumWorkers(workers))
					assert.Error(t, err)
					assert.ErrorIs(t, err, ErrUnindexedSplit)
					assert.ErrorIs(t, err, ers.ErrRecoveredPanic)
					assert.Equal(t, len(out), 0)
				}
			}
		})
		t.Run("MapOverSeq", func(t *testing.T) {
			_, err := Collect(t.Context(), Intersperse(Map(Seq(slices.Values(letters(10))), strings.ToUpper), "x"))
			assert.ErrorIs(t, err, ErrUnindexedSplit)
		})
	})
	t.Run("Duplication", func(t *testing.T) {
		t.Run("DistinctSeparators", func(t *testing.T) {
			sep := &marker{label: "sep"}
			items := make([]*marker, 64)
			for i := range items {
				items[i] = &marker{label: strconv.Itoa(i)}
			}

			out, err := Collect(t.Context(), Intersperse(Slice(items), sep), plumbing.ConfNumWorkers(8))
			assert.NotError(t, err)
			assert.Equal(t, len(out), 2*len(items)-1)

			seen := map[*marker]bool{sep: true}
			for idx, m := range out {
				if idx%2 == 0 {
					assert.True(t, m == items[idx/2])
					continue
				}
				assert.Equal(t, m.label, "sep")
				assert.True(t, !seen[m])
				seen[m] = true
			}

			out[1].label = "changed"
			assert.Equal(t, out[3].label, "sep")
			assert.Equal(t, sep.label, "sep")
		})
		t.Run("ConsumerCopies", func(t *testing.T) {
			sep := &marker{label: "sep"}
			c := newIntersperseConsumer[*marker](collector[*marker](t.Context()), sep, noSeparator)
			left, right, _ := c.SplitAt(2)
			lsep := left.(intersperseConsumer[*marker]).sep
			rsep := right.(intersperseConsumer[*marker]).sep

			assert.True(t, c.sep != sep)
			assert.True(t, lsep != rsep)
			assert.True(t, lsep != c.sep)

			lsep.label = "mutated"
			assert.Equal(t, rsep.label, "sep")
			assert.Equal(t, c.sep.label, "sep")
		})
		t.Run("ValueSeparator", func(t *testing.T) {
			out, err := Collect(t.Context(), Intersperse(Slice([][2]int{{1, 1}, {2, 2}}), [2]int{0, 0}))
			assert.NotError(t, err)
			assert.Equal(t, len(out), 3)
			out[1][0] = 9
			assert.Equal(t, out[1], [2]int{9, 0})
		})
	})
	t.Run("Collect", func(t *testing.T) {
		configs := map[string][]opt.Provider[*plumbing.Conf]{
			"Default":      nil,
			"SingleWorker": {plumbing.ConfNumWorkers(1)},
			"ManyWorkers":  {plumbing.ConfNumWorkers(1 << 10)},
			"MinLen":       {plumbing.ConfNumWorkers(64), plumbing.ConfMinLen(7)},
			"RandomPoints": {plumbing.ConfNumWorkers(1 << 10), plumbing.ConfSplitPoint(lockedSplitPoint(42))},
		}
		for name, opts := range configs {
			t.Run(name, func(t *testing.T) {
				for _, size := range []int{0, 1, 2, 3, 10, 99, 1000} {
					items := letters(size)
					out, err := Collect(t.Context(), Intersperse(Slice(items), ","), opts...)
					assert.NotError(t, err)
					assert.EqualItems(t, out, sequential(items, ","))
				}
			})
		}
	})
	t.Run("Composition", func(t *testing.T) {
		t.Run("Map", func(t *testing.T) {
			out, err := Collect(t.Context(), Intersperse(Map(Range(0, 5), strconv.Itoa), ","),
				plumbing.ConfNumWorkers(16))
			assert.NotError(t, err)
			assert.Equal(t, strings.Join(out, ""), "0,1,2,3,4")
		})
		t.Run("MapOfIntersperse", func(t *testing.T) {
			out, err := Collect(t.Context(), Map(Intersperse(Range(1, 4), 0), func(i int) string { return fmt.Sprint(i * 2) }))
			assert.NotError(t, err)
			assert.Equal(t, strings.Join(out, " "), "2 0 4 0 6")
		})
		t.Run("Nested", func(t *testing.T) {
			for _, workers := range []int{1, 4, 1 << 10} {
				items := letters(50)
				out, err := Collect(t.Context(), Intersperse(Intersperse(Slice(items), "x"), "y"),
					plumbing.ConfNumWorkers(workers), plumbing.ConfSplitPoint(lockedSplitPoint(int64(workers))))
				assert.NotError(t, err)
				assert.EqualItems(t, out, sequential(sequential(items, "x"), "y"))
			}
		})
		t.Run("Count", func(t *testing.T) {
			for _, size := range []int{0, 1, 2, 500} {
				n, err := Count(t.Context(), Intersperse(Range(0, size), -1))
				assert.NotError(t, err)
				assert.Equal(t, n, max(0, 2*size-1))
			}
		})
		t.Run("Reduce", func(t *testing.T) {
			out, err := Reduce(t.Context(), Intersperse(Slice(letters(6)), "-"),
				func() string { return "" },
				func(a, b string) string { return a + b },
				plumbing.ConfNumWorkers(8))
			assert.NotError(t, err)
			assert.Equal(t, out, "a-b-c-d-e-f")
		})
	})
}
