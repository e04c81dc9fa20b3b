// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics on top of a discarding task group. It enables incremental
// migration without giving up first-failure tracking and task snapshots.
package errgroup

import (
	"context"
	"sync"

	"github.com/NetPo4ki/go-taskgroup/taskgroup"
)

// Group is an errgroup-like wrapper over taskgroup.DiscardingGroup. The
// group's scope is held open by a background goroutine until Wait is called,
// so Wait must always be called.
type Group struct {
	g       *taskgroup.DiscardingGroup
	ctx     context.Context
	release chan struct{}
	once    sync.Once
	done    chan struct{}
	err     error
}

// WithContext creates a Group bound to ctx. Returned context is canceled when
// any function passed to Go returns a non-nil error.
func WithContext(ctx context.Context, opts ...taskgroup.Option) (*Group, context.Context) {
	g := &Group{release: make(chan struct{}), done: make(chan struct{})}
	ready := make(chan struct{})
	go func() {
		defer close(g.done)
		_, g.err = taskgroup.Discard(ctx, func(ctx context.Context, dg *taskgroup.DiscardingGroup) (struct{}, error) {
			g.g, g.ctx = dg, ctx
			close(ready)
			<-g.release
			return struct{}{}, nil
		}, opts...)
	}()
	<-ready
	return g, g.ctx
}

// Go starts a function. It should return a non-nil error to signal failure.
// Calls after Wait are ignored.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	_ = g.g.Go(func(context.Context) error {
		return f()
	})
}

// Wait blocks until all functions have returned. It returns the first non-nil
// error or nil on success. Wait may be called more than once.
func (g *Group) Wait() error {
	g.once.Do(func() { close(g.release) })
	<-g.done
	return g.err
}

// Tasks returns a snapshot of the functions started so far.
func (g *Group) Tasks() []taskgroup.TaskInfo {
	return g.g.Tasks()
}
