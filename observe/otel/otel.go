package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NetPo4ki/go-taskgroup/taskgroup"
)

const (
	EventGroupCreated   = "taskgroup.created"
	EventGroupCancelled = "taskgroup.cancelled"
	EventGroupJoined    = "taskgroup.joined"
	EventTaskStarted    = "taskgroup.task.started"
	EventTaskFinished   = "taskgroup.task.finished"
)

// Observer adds span events to the span found in the group context. Groups
// started under a context without a recording span cost nothing.
type Observer struct{}

var _ taskgroup.Observer = (*Observer)(nil)

// New returns a span-event observer.
func New() *Observer { return &Observer{} }

func (*Observer) GroupCreated(ctx context.Context, mode taskgroup.Mode) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(EventGroupCreated, trace.WithAttributes(attribute.String("taskgroup.mode", mode.String())))
}

// GroupCancelled records the winning failure on the span. Errors dropped by
// the group are never reported here.
func (*Observer) GroupCancelled(ctx context.Context, cause error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{}
	if k, ok := taskgroup.KindOf(cause); ok {
		attrs = append(attrs, attribute.String("taskgroup.failure_kind", k.String()))
	}
	span.AddEvent(EventGroupCancelled, trace.WithAttributes(attrs...))
	if cause != nil {
		span.SetStatus(codes.Error, cause.Error())
	}
}

func (*Observer) GroupJoined(ctx context.Context, wait time.Duration) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(EventGroupJoined, trace.WithAttributes(attribute.Int64("taskgroup.join_wait_ns", wait.Nanoseconds())))
}

func (*Observer) TaskStarted(ctx context.Context) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(EventTaskStarted)
}

func (*Observer) TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(EventTaskFinished, trace.WithAttributes(
		attribute.Int64("taskgroup.task.duration_ns", dur.Nanoseconds()),
		attribute.Bool("taskgroup.task.failed", err != nil),
		attribute.Bool("taskgroup.task.panicked", panicked),
	))
}
