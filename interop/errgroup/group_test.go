package errgroup

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
	xerrgroup "golang.org/x/sync/errgroup"

	"github.com/NetPo4ki/go-taskgroup/taskgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWithContextHappy(t *testing.T) {
	t.Parallel()
	g, _ := WithContext(context.Background())
	g.Go(func() error { return nil })
	g.Go(func() error { time.Sleep(10 * time.Millisecond); return nil })
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ti := range g.Tasks() {
		if ti.State != taskgroup.TaskCompleted {
			t.Fatalf("task %d: expected completed, got %v", ti.ID, ti.State)
		}
	}
}

func TestWithContextErrorCancels(t *testing.T) {
	t.Parallel()
	g, gctx := WithContext(context.Background())
	boom := errors.New("boom")
	g.Go(func() error { return boom })
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-time.After(250 * time.Millisecond):
			return errors.New("expected cancel propagation")
		}
	})
	err := g.Wait()
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if k, _ := taskgroup.KindOf(err); k != taskgroup.KindChild {
		t.Fatalf("expected child failure, got %v", k)
	}
}

func TestWithContextParentDone(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
		want error
	}{
		{"deadline", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 20*time.Millisecond)
		}, context.DeadlineExceeded},
		{"cancel", func() (context.Context, context.CancelFunc) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx, cancel
		}, context.Canceled},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := tc.ctx()
			defer cancel()
			g, gctx := WithContext(ctx)
			g.Go(func() error {
				// cooperative task: observe context cancellation
				<-gctx.Done()
				return gctx.Err()
			})
			err := g.Wait()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, taskgroup.ErrCancelled) {
				t.Fatalf("expected cancellation failure, got %v", err)
			}
		})
	}
}

func TestWaitTwiceAndGoAfterWait(t *testing.T) {
	t.Parallel()
	g, _ := WithContext(context.Background())
	g.Go(func() error { return errors.New("boom") })
	err1 := g.Wait()
	err2 := g.Wait()
	if err1 == nil || err1 != err2 {
		t.Fatalf("Wait should return the same error; got %v vs %v", err1, err2)
	}
	g.Go(func() error {
		t.Error("function submitted after Wait must not run")
		return nil
	})
	if n := len(g.Tasks()); n != 1 {
		t.Fatalf("expected one recorded task, got %d", n)
	}
}

func TestMatchesSyncErrgroup(t *testing.T) {
	t.Parallel()
	first := errors.New("first")
	run := func(goFn func(func() error), ctx context.Context, wait func() error) error {
		goFn(func() error { return first })
		goFn(func() error {
			<-ctx.Done()
			return errors.New("late")
		})
		return wait()
	}

	ours, octx := WithContext(context.Background())
	theirs, tctx := xerrgroup.WithContext(context.Background())
	gotOurs := run(ours.Go, octx, ours.Wait)
	gotTheirs := run(theirs.Go, tctx, theirs.Wait)
	if !errors.Is(gotOurs, first) || !errors.Is(gotTheirs, first) {
		t.Fatalf("expected both groups to return the first error; got %v and %v", gotOurs, gotTheirs)
	}
}
