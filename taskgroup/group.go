package taskgroup

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// TaskState is the lifecycle state of one child.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s TaskState) Terminal() bool { return s >= TaskCompleted }

// TaskInfo is a snapshot of one child, as returned by Tasks.
type TaskInfo struct {
	ID    uint64
	State TaskState
	// Err is the child's failure, if any. It is set for every failed child,
	// including ones whose error did not become the group's outcome.
	Err error
}

// Result is one completed child in a collecting group.
type Result[T any] struct {
	Value T
	Err   error
}

type groupState int

const (
	stateOpen groupState = iota
	stateFinalizing
	stateClosed
)

type taskRecord struct {
	id    uint64
	state TaskState
	err   error
}

type group[T any] struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	mode   Mode
	wg     sync.WaitGroup

	mu          sync.Mutex
	cond        *sync.Cond
	state       groupState
	firstErr    *Failure
	cancelled   bool
	cancelCause error
	outstanding int
	tasks       []*taskRecord
	results     []Result[T]

	opts Options
	obs  Observer
	lim  Limiter
}

func newGroup[T any](parent context.Context, mode Mode, optFns ...Option) *group[T] {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	g := &group[T]{ctx: ctx, cancel: cancel, mode: mode, opts: defaultOptions()}
	g.cond = sync.NewCond(&g.mu)
	for _, fn := range optFns {
		if fn != nil {
			fn(&g.opts)
		}
	}
	g.obs = g.opts.Observer
	g.lim = g.opts.Limiter
	if g.lim == nil && g.opts.MaxConcurrency > 0 {
		g.lim = NewLimiter(g.opts.MaxConcurrency)
	}
	if g.obs != nil {
		g.obs.GroupCreated(ctx, mode)
	}
	return g
}

// scoped runs body against a fresh group and finalizes it: the body's error
// competes for the outcome, children are cancelled on failure, and every
// child is joined before returning.
func scoped[T, R any](ctx context.Context, mode Mode, body func(context.Context, *group[T]) (R, error), optFns []Option) (R, error) {
	g := newGroup[T](ctx, mode, optFns...)

	finished := false
	defer func() {
		if !finished {
			// body panicked; children still must not outlive the scope.
			g.cancelAll(errors.New("taskgroup: body panicked"))
			g.join()
		}
	}()
	res, err := body(g.ctx, g)
	finished = true

	var bodyErr *Failure
	if err != nil {
		bodyErr = g.failBody(err)
	}
	g.join()

	var zero R
	switch g.mode {
	case Discarding:
		g.mu.Lock()
		first := g.firstErr
		g.mu.Unlock()
		if first != nil {
			return zero, first
		}
	default:
		if bodyErr != nil {
			return zero, bodyErr
		}
	}
	return res, nil
}

func (g *group[T]) spawn(fn func(context.Context) (T, error), unlessCancelled bool) error {
	if fn == nil {
		return ErrNilTask
	}
	g.mu.Lock()
	if g.state != stateOpen {
		g.mu.Unlock()
		return ErrGroupClosed
	}
	if unlessCancelled && (g.cancelled || g.ctx.Err() != nil) {
		g.mu.Unlock()
		return ErrCancelled
	}
	rec := &taskRecord{id: uint64(len(g.tasks) + 1), state: TaskPending}
	g.tasks = append(g.tasks, rec)
	g.outstanding++
	g.wg.Add(1)
	g.mu.Unlock()

	go g.run(rec, fn)
	return nil
}

func (g *group[T]) run(rec *taskRecord, fn func(context.Context) (T, error)) {
	defer g.wg.Done()
	if g.lim != nil {
		if err := g.lim.Acquire(g.ctx); err != nil {
			var zero T
			g.finish(rec, zero, cancellationError(g.ctx, "taskgroup: task cancelled before start"))
			return
		}
		defer g.lim.Release()
	}

	g.mu.Lock()
	rec.state = TaskRunning
	g.mu.Unlock()

	var start time.Time
	if g.obs != nil {
		start = time.Now()
		g.obs.TaskStarted(g.ctx)
	}

	value, panicked, err := g.call(fn)
	f := g.finish(rec, value, err)
	if g.obs != nil {
		var ferr error
		if f != nil {
			ferr = f
		}
		g.obs.TaskFinished(g.ctx, time.Since(start), ferr, panicked)
	}
}

func (g *group[T]) call(fn func(context.Context) (T, error)) (value T, panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			if !g.opts.PanicAsError {
				if g.obs != nil {
					g.obs.TaskFinished(g.ctx, 0, nil, true)
				}
				panic(r)
			}
			err = errors.Newf("taskgroup: panic: %v", r)
		}
	}()
	value, err = fn(g.ctx)
	return value, false, err
}

// finish records the child's terminal state. In discarding mode the first
// failure to arrive becomes the group's outcome and cancels the rest.
func (g *group[T]) finish(rec *taskRecord, value T, err error) *Failure {
	var f *Failure
	if err != nil {
		f = childFailure(g.ctx, g, rec.id, err)
	}

	g.mu.Lock()
	won := false
	switch {
	case f == nil:
		rec.state = TaskCompleted
	case f.Kind == KindCancellation:
		rec.state, rec.err = TaskCancelled, f
	default:
		rec.state, rec.err = TaskFailed, f
	}
	g.outstanding--
	if g.mode == Collecting {
		r := Result[T]{Value: value}
		if f != nil {
			r.Err = f
		}
		g.results = append(g.results, r)
	} else if f != nil && g.firstErr == nil {
		g.firstErr = f
		won = true
	}
	g.cond.Broadcast()
	g.mu.Unlock()

	if won {
		g.cancelAll(f)
	}
	return f
}

func (g *group[T]) failBody(err error) *Failure {
	f := bodyFailure(g, err)
	g.mu.Lock()
	if g.firstErr == nil || g.opts.BodyErrorPriority {
		g.firstErr = f
	}
	cause := g.firstErr
	g.mu.Unlock()
	g.cancelAll(cause)
	return f
}

// cancelAll cancels the group once. The first cause is the one context.Cause
// reports; later calls are no-ops.
func (g *group[T]) cancelAll(cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelled {
		return
	}
	g.cancelled = true
	g.cancelCause = cause
	g.cancel(cause)
}

func (g *group[T]) isCancelled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled || g.ctx.Err() != nil
}

func (g *group[T]) join() {
	g.mu.Lock()
	g.state = stateFinalizing
	g.mu.Unlock()

	var start time.Time
	if g.obs != nil {
		start = time.Now()
	}
	g.wg.Wait()
	if g.obs != nil {
		// The outcome is final only once every child has finished, so the
		// cancellation is reported here rather than when it happened.
		g.mu.Lock()
		cancelled, cause := g.cancelled, g.cancelCause
		if g.firstErr != nil {
			cause = g.firstErr
		}
		g.mu.Unlock()
		if cancelled {
			g.obs.GroupCancelled(g.ctx, cause)
		}
		g.obs.GroupJoined(g.ctx, time.Since(start))
	}

	g.mu.Lock()
	g.state = stateClosed
	g.cond.Broadcast()
	g.mu.Unlock()
	g.cancel(context.Canceled)
}

func (g *group[T]) next() (Result[T], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for len(g.results) == 0 && g.outstanding > 0 {
		g.cond.Wait()
	}
	if len(g.results) == 0 {
		return Result[T]{}, false
	}
	r := g.results[0]
	g.results[0] = Result[T]{}
	g.results = g.results[1:]
	return r, true
}

func (g *group[T]) snapshot() []TaskInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]TaskInfo, 0, len(g.tasks))
	for _, rec := range g.tasks {
		out = append(out, TaskInfo{ID: rec.id, State: rec.state, Err: rec.err})
	}
	return out
}
