package otel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-taskgroup/taskgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSpanEvents(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	_, err := taskgroup.Discard(ctx, func(_ context.Context, g *taskgroup.DiscardingGroup) (int, error) {
		require.NoError(t, g.Go(func(context.Context) error { return errors.New("boom") }))
		return 0, nil
	}, taskgroup.WithObserver(New()))
	require.Error(t, err)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	var names []string
	var cancelAttrs []attribute.KeyValue
	for _, ev := range spans[0].Events() {
		names = append(names, ev.Name)
		if ev.Name == EventGroupCancelled {
			cancelAttrs = ev.Attributes
		}
	}
	require.Equal(t, EventGroupCreated, names[0])
	require.Equal(t, EventGroupJoined, names[len(names)-1])
	require.Contains(t, names, EventTaskStarted)
	require.Contains(t, names, EventTaskFinished)
	require.Contains(t, names, EventGroupCancelled)
	require.Contains(t, cancelAttrs, attribute.String("taskgroup.failure_kind", "child"))
	require.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestNoSpanIsNoop(t *testing.T) {
	_, err := taskgroup.Collect(context.Background(), func(_ context.Context, g *taskgroup.Group[int]) (int, error) {
		require.NoError(t, g.Go(func(context.Context) (int, error) { return 1, nil }))
		return 0, nil
	}, taskgroup.WithObserver(New()))
	require.NoError(t, err)
}

func TestSpanStatusIsPropagatedFailure(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	_, err := taskgroup.Discard(ctx, func(ctx context.Context, g *taskgroup.DiscardingGroup) (int, error) {
		require.NoError(t, g.Go(func(context.Context) error { return errors.New("task first") }))
		_ = taskgroup.Sleep(ctx, time.Second)
		return 0, errors.New("body second")
	}, taskgroup.WithBodyErrorPriority(true), taskgroup.WithObserver(New()))
	require.EqualError(t, err, "body second")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Equal(t, "body second", spans[0].Status().Description)
}
