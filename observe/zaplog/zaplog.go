// Package zaplog logs task group lifecycle events with zap.
package zaplog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/NetPo4ki/go-taskgroup/taskgroup"
)

// Observer writes one structured record per lifecycle event. Per-task and
// join records go to Debug, cancellation to Info, panics to Warn.
type Observer struct {
	log *zap.Logger
}

var _ taskgroup.Observer = (*Observer)(nil)

// New returns an Observer writing to log. A nil log discards everything.
func New(log *zap.Logger) *Observer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Observer{log: log}
}

func (o *Observer) GroupCreated(_ context.Context, mode taskgroup.Mode) {
	o.log.Debug("task group created", zap.Stringer("mode", mode))
}

// GroupCancelled logs the cause the group will propagate; failures the group
// drops never reach the log.
func (o *Observer) GroupCancelled(_ context.Context, cause error) {
	fields := []zap.Field{zap.Error(cause)}
	if k, ok := taskgroup.KindOf(cause); ok {
		fields = append(fields, zap.Stringer("kind", k))
	}
	o.log.Info("task group cancelled", fields...)
}

func (o *Observer) GroupJoined(_ context.Context, wait time.Duration) {
	o.log.Debug("task group joined", zap.Duration("wait", wait))
}

func (o *Observer) TaskStarted(_ context.Context) {
	o.log.Debug("task started")
}

func (o *Observer) TaskFinished(_ context.Context, dur time.Duration, err error, panicked bool) {
	fields := []zap.Field{zap.Duration("duration", dur), zap.Bool("failed", err != nil)}
	if panicked {
		o.log.Warn("task panicked", fields...)
		return
	}
	o.log.Debug("task finished", fields...)
}
