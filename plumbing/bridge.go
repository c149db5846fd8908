package plumbing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tychoish/par/ers"
)

// Bridge drives an indexed producer into a consumer. The producer and
// consumer are split at the same point, recursively, for as long as
// the engine's split budget and minimum length allow; the halves run
// concurrently and their results are merged by the reducer from each
// split. Leaf ranges fold sequentially.
//
// A panic in any part of the tree is re-raised in the calling
// goroutine once both halves of the split that observed it have
// returned. Bridge stops splitting, and completes empty folders, once
// the consumer is full or the context is canceled.
func Bridge[T any](ctx context.Context, eng *Engine, producer Producer[T], consumer Consumer[T]) any {
	eng = eng.orDefault()
	length := producer.Len()

	ctx, span := eng.conf.Tracer.Start(ctx, "par.bridge", trace.WithAttributes(
		attribute.Int("par.len", length),
		attribute.Int("par.workers", eng.conf.NumWorkers),
	))
	defer endSpan(span)

	b := &bridge[T]{eng: eng, ctx: ctx}
	return b.indexed(0, length, eng.splitter(), producer, consumer)
}

// BridgeUnindexed drives an unindexed producer into an unindexed
// consumer, using SplitOffLeft and ToReducer at every split. The
// first split is always attempted, regardless of the split budget.
func BridgeUnindexed[T any](ctx context.Context, eng *Engine, producer UnindexedProducer[T], consumer UnindexedConsumer[T]) any {
	eng = eng.orDefault()

	ctx, span := eng.conf.Tracer.Start(ctx, "par.bridge_unindexed", trace.WithAttributes(
		attribute.Int("par.workers", eng.conf.NumWorkers),
	))
	defer endSpan(span)

	sp := eng.splitter()
	sp.splits = max(1, sp.splits)

	b := &bridge[T]{eng: eng, ctx: ctx}
	return b.unindexed(0, sp, producer, consumer)
}

func endSpan(span trace.Span) {
	if r := recover(); r != nil {
		err := ers.ParsePanic(r)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		panic(r)
	}
	span.End()
}

type bridge[T any] struct {
	eng *Engine
	ctx context.Context
}

func (b *bridge[T]) done(consumer Consumer[T]) bool {
	return consumer.Full() || b.ctx.Err() != nil
}

func (b *bridge[T]) indexed(depth, length int, sp splitter, producer Producer[T], consumer Consumer[T]) any {
	if b.done(consumer) {
		return consumer.IntoFolder().Complete()
	}

	if sp.trySplitLen(length) {
		if point := b.eng.conf.SplitPoint(length); point > 0 && point < length {
			b.eng.conf.Logger.Debug().
				Int("depth", depth).
				Int("len", length).
				Int("point", point).
				Msg("split")

			lp, rp := producer.SplitAt(point)
			lc, rc, reducer := consumer.SplitAt(point)

			left, right := join(
				func() any { return b.indexed(depth+1, point, sp, lp, lc) },
				func() any { return b.indexed(depth+1, length-point, sp, rp, rc) },
			)
			return reducer.Reduce(left, right)
		}
	}

	return producer.FoldWith(consumer.IntoFolder()).Complete()
}

func (b *bridge[T]) unindexed(depth int, sp splitter, producer UnindexedProducer[T], consumer UnindexedConsumer[T]) any {
	if b.done(consumer) {
		return consumer.IntoFolder().Complete()
	}

	if !sp.trySplit() {
		return producer.FoldWith(consumer.IntoFolder()).Complete()
	}

	lp, rp, ok := producer.Split()
	if !ok {
		return lp.FoldWith(consumer.IntoFolder()).Complete()
	}

	b.eng.conf.Logger.Debug().
		Int("depth", depth).
		Msg("split unindexed")

	reducer := consumer.ToReducer()
	lc := consumer.SplitOffLeft()

	left, right := join(
		func() any { return b.unindexed(depth+1, sp, lp, lc) },
		func() any { return b.unindexed(depth+1, sp, rp, consumer) },
	)
	return reducer.Reduce(left, right)
}

// join runs left on a new goroutine and right on the current one,
// and waits for both. If either panics, the panic is re-raised after
// both have returned, preferring the left value.
func join[A, B any](left func() A, right func() B) (lout A, rout B) {
	var (
		wg     sync.WaitGroup
		lpanic any
		rpanic any
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() { lpanic = recover() }()
		lout = left()
	}()

	func() {
		defer func() { rpanic = recover() }()
		rout = right()
	}()

	wg.Wait()

	switch {
	case lpanic != nil:
		panic(lpanic)
	case rpanic != nil:
		panic(rpanic)
	}

	return lout, rout
}
