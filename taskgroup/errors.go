package taskgroup

import (
	"context"

	"github.com/cockroachdb/errors"
)

var (
	// ErrCancelled marks failures caused by a task observing group
	// cancellation. Test with errors.Is.
	ErrCancelled = errors.New("taskgroup: cancelled")

	// ErrGroupClosed is returned by Go once the group has started finalizing.
	ErrGroupClosed = errors.New("taskgroup: group is closed")

	// ErrNilTask is returned by Go when the task callback is nil.
	ErrNilTask = errors.New("taskgroup: nil task")
)

// Kind classifies the origin of a Failure.
type Kind int

const (
	KindChild Kind = iota + 1
	KindBody
	KindCancellation
)

func (k Kind) String() string {
	switch k {
	case KindChild:
		return "child"
	case KindBody:
		return "body"
	case KindCancellation:
		return "cancellation"
	default:
		return "unknown"
	}
}

// Failure is the single error a group propagates. It carries the payload
// unchanged: Error returns the payload's message and errors.Is/As see through
// it.
type Failure struct {
	Kind Kind
	// TaskID is the 1-based submission index of the failing child, or 0 for
	// body failures.
	TaskID uint64

	owner any // group that classified the failure
	err   error
}

func (f *Failure) Error() string { return f.err.Error() }

func (f *Failure) Unwrap() error { return f.err }

// Is lets the standard library's errors.Is match ErrCancelled, which
// cockroachdb/errors attaches as a mark rather than a wrapped cause.
func (f *Failure) Is(target error) bool {
	return f.Kind == KindCancellation && target == ErrCancelled
}

// KindOf reports the Kind of the outermost Failure in err's chain.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// bodyFailure classifies an error returned by owner's body. A failure owner
// itself produced, retrieved from Next and rethrown, keeps its origin; anything
// else, including a nested group's outcome, is a body failure.
func bodyFailure(owner any, err error) *Failure {
	if f, ok := err.(*Failure); ok && f.owner == owner {
		return f
	}
	return &Failure{Kind: KindBody, owner: owner, err: err}
}

// childFailure classifies err returned by task id. Errors that come from
// observing the group's cancellation become KindCancellation and are marked
// with ErrCancelled.
func childFailure(ctx context.Context, owner any, id uint64, err error) *Failure {
	if errors.Is(err, ErrCancelled) {
		return &Failure{Kind: KindCancellation, TaskID: id, owner: owner, err: err}
	}
	if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
		return &Failure{Kind: KindCancellation, TaskID: id, owner: owner, err: errors.Mark(err, ErrCancelled)}
	}
	return &Failure{Kind: KindChild, TaskID: id, owner: owner, err: err}
}

// cancellationError is what cancellable waits return when woken early.
func cancellationError(ctx context.Context, msg string) error {
	return errors.Mark(errors.Wrap(ctx.Err(), msg), ErrCancelled)
}
