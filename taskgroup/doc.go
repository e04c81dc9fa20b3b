// Package taskgroup provides structured task groups for Go.
//
// A group is scoped to one call of Collect or Discard. The body passed to
// that call starts children with Go; when the body returns, the group
// cancels outstanding work if anything failed, waits for every child, and
// only then returns. No child outlives the call.
//
// Exactly one error reaches the caller. In a discarding group it is the
// first failure to arrive, whether from a child or the body; later failures
// are dropped. In a collecting group child failures are delivered through
// Next and only propagate if the body returns them.
//
// Cancellation is cooperative. Children receive the group context and are
// expected to watch it, for example with Sleep or Checkpoint, which return
// errors matching ErrCancelled.
package taskgroup
