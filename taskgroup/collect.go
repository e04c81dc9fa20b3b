package taskgroup

import (
	"context"
	"iter"
)

// Group is a collecting task group. Child results are queued in completion
// order and retrieved with Next. A failed child's error is only seen by the
// caller that retrieves it; the group never rethrows it on its own.
//
// A Group is only valid inside the body passed to Collect.
type Group[T any] struct {
	g *group[T]
}

// Collect runs body with a new collecting group and returns once body has
// returned and every child it started has finished.
//
// The outcome is body's: a returned error is propagated (after children are
// cancelled and joined) and a returned value is passed through, regardless of
// unconsumed child failures.
func Collect[T, R any](ctx context.Context, body func(ctx context.Context, g *Group[T]) (R, error), opts ...Option) (R, error) {
	return scoped(ctx, Collecting, func(ctx context.Context, g *group[T]) (R, error) {
		return body(ctx, &Group[T]{g: g})
	}, opts)
}

// Go starts fn in its own goroutine. fn receives the group context, which is
// cancelled by CancelAll or when the body fails.
func (g *Group[T]) Go(fn func(ctx context.Context) (T, error)) error {
	return g.g.spawn(fn, false)
}

// GoUnlessCancelled is like Go but starts nothing and returns false when the
// group is already cancelled or closed.
func (g *Group[T]) GoUnlessCancelled(fn func(ctx context.Context) (T, error)) bool {
	return g.g.spawn(fn, true) == nil
}

// Next blocks until a child completes and returns its result. It returns
// false once no children are pending and no results are queued.
func (g *Group[T]) Next() (Result[T], bool) {
	return g.g.next()
}

// All ranges over results as they arrive, stopping when the group is
// drained or the loop breaks.
func (g *Group[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			r, ok := g.g.next()
			if !ok || !yield(r.Value, r.Err) {
				return
			}
		}
	}
}

// WaitAll drains every pending result and returns the first error among
// them, or nil. The error is not rethrown by the group unless the body
// returns it.
func (g *Group[T]) WaitAll() error {
	var first error
	for {
		r, ok := g.g.next()
		if !ok {
			return first
		}
		if first == nil && r.Err != nil {
			first = r.Err
		}
	}
}

// IsEmpty reports whether there are no running children and no queued
// results.
func (g *Group[T]) IsEmpty() bool {
	g.g.mu.Lock()
	defer g.g.mu.Unlock()
	return g.g.outstanding == 0 && len(g.g.results) == 0
}

func (g *Group[T]) CancelAll() { g.g.cancelAll(ErrCancelled) }

func (g *Group[T]) IsCancelled() bool { return g.g.isCancelled() }

func (g *Group[T]) Context() context.Context { return g.g.ctx }

// Tasks returns a snapshot of every child started so far, in submission order.
func (g *Group[T]) Tasks() []TaskInfo { return g.g.snapshot() }
