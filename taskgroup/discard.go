package taskgroup

import "context"

// DiscardingGroup is a task group that drops child results. The first
// failure to arrive, from a child or from the body, cancels the group and
// becomes the outcome of Discard.
//
// A DiscardingGroup is only valid inside the body passed to Discard.
type DiscardingGroup struct {
	g *group[struct{}]
}

// Discard runs body with a new discarding group and returns once body has
// returned and every child it started has finished. If any failure was
// recorded the first one is returned, even when body succeeded.
func Discard[R any](ctx context.Context, body func(ctx context.Context, g *DiscardingGroup) (R, error), opts ...Option) (R, error) {
	return scoped(ctx, Discarding, func(ctx context.Context, g *group[struct{}]) (R, error) {
		return body(ctx, &DiscardingGroup{g: g})
	}, opts)
}

// Go starts fn in its own goroutine.
func (g *DiscardingGroup) Go(fn func(ctx context.Context) error) error {
	if fn == nil {
		return ErrNilTask
	}
	return g.g.spawn(discardValue(fn), false)
}

// GoUnlessCancelled is like Go but starts nothing and returns false when the
// group is already cancelled or closed.
func (g *DiscardingGroup) GoUnlessCancelled(fn func(ctx context.Context) error) bool {
	if fn == nil {
		return false
	}
	return g.g.spawn(discardValue(fn), true) == nil
}

func (g *DiscardingGroup) CancelAll() { g.g.cancelAll(ErrCancelled) }

func (g *DiscardingGroup) IsCancelled() bool { return g.g.isCancelled() }

func (g *DiscardingGroup) Context() context.Context { return g.g.ctx }

// Tasks returns a snapshot of every child started so far, in submission order.
func (g *DiscardingGroup) Tasks() []TaskInfo { return g.g.snapshot() }

func discardValue(fn func(context.Context) error) func(context.Context) (struct{}, error) {
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}
}
