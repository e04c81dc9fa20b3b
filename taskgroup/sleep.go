package taskgroup

import (
	"context"
	"time"
)

// Sleep pauses for d or until ctx is done. It returns nil when the full
// duration elapsed and an error matching ErrCancelled when woken early.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := Checkpoint(ctx); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return cancellationError(ctx, "taskgroup: sleep interrupted")
	}
}

// Checkpoint returns an error matching ErrCancelled if ctx is already done.
func Checkpoint(ctx context.Context) error {
	if ctx.Err() != nil {
		return cancellationError(ctx, "taskgroup: task cancelled")
	}
	return nil
}
