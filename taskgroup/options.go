package taskgroup

import (
	"context"
	"time"
)

// Mode selects what a group does with child results.
type Mode int

const (
	// Collecting groups queue child results for retrieval with Next.
	Collecting Mode = iota
	// Discarding groups drop child results and rethrow the first failure.
	Discarding
)

func (m Mode) String() string {
	switch m {
	case Collecting:
		return "collecting"
	case Discarding:
		return "discarding"
	default:
		return "unknown"
	}
}

type Option func(*Options)

type Options struct {
	PanicAsError      bool
	Observer          Observer
	MaxConcurrency    int
	Limiter           Limiter
	BodyErrorPriority bool
}

func defaultOptions() Options { return Options{PanicAsError: true} }

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

// WithLimiter bounds children with l, which may be shared by several groups.
// It takes precedence over WithMaxConcurrency.
func WithLimiter(l Limiter) Option { return func(o *Options) { o.Limiter = l } }

// WithBodyErrorPriority makes an error returned by the body the group's
// outcome even when a child failed before it. By default the earliest
// failure wins.
func WithBodyErrorPriority(v bool) Option { return func(o *Options) { o.BodyErrorPriority = v } }

// Observer receives lifecycle events from a group. Implementations must be
// safe for concurrent use.
//
// GroupCancelled fires at most once, after every child has finished and just
// before GroupJoined. Its cause is the failure the group propagates, or the
// cancellation cause when no failure was recorded. Failures the group drops
// are never passed to it.
type Observer interface {
	GroupCreated(ctx context.Context, mode Mode)
	GroupCancelled(ctx context.Context, cause error)
	GroupJoined(ctx context.Context, wait time.Duration)
	TaskStarted(ctx context.Context)
	TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool)
}

// Observers returns an Observer that forwards every event to each of obs in
// order. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

type multiObserver []Observer

func (m multiObserver) GroupCreated(ctx context.Context, mode Mode) {
	for _, o := range m {
		o.GroupCreated(ctx, mode)
	}
}

func (m multiObserver) GroupCancelled(ctx context.Context, cause error) {
	for _, o := range m {
		o.GroupCancelled(ctx, cause)
	}
}

func (m multiObserver) GroupJoined(ctx context.Context, wait time.Duration) {
	for _, o := range m {
		o.GroupJoined(ctx, wait)
	}
}

func (m multiObserver) TaskStarted(ctx context.Context) {
	for _, o := range m {
		o.TaskStarted(ctx)
	}
}

func (m multiObserver) TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool) {
	for _, o := range m {
		o.TaskFinished(ctx, dur, err, panicked)
	}
}
