package coordinator

import (
	"errors"
	"fmt"
)

// noNodesMessage is the fallback-path error text surfaced to callers.
const noNodesMessage = "No available compute nodes"

// nodeUnavailableError signals that no node satisfies the fallback requirements.
type nodeUnavailableError struct{ model string }

func (e nodeUnavailableError) Error() string { return noNodesMessage }

// IsNodeUnavailable reports whether err means no capable node was found.
func IsNodeUnavailable(err error) bool {
	var e nodeUnavailableError
	return errors.As(err, &e)
}

// nodeUnreachableError is returned by a runner that cannot reach its node.
type nodeUnreachableError struct{ node string }

func (e nodeUnreachableError) Error() string { return "node unreachable: " + e.node }

// ErrNodeUnreachable constructs a nodeUnreachableError for runner implementations.
func ErrNodeUnreachable(node string) error { return nodeUnreachableError{node: node} }

// IsNodeUnreachable reports whether err means a node could not be reached.
func IsNodeUnreachable(err error) bool {
	var e nodeUnreachableError
	return errors.As(err, &e)
}

// partitionExecutionError aborts a request after a partition failed on its
// assigned node and, when one was available, on an alternate node.
type partitionExecutionError struct {
	partition string
	node      string
	retried   bool
	err       error
}

func (e partitionExecutionError) Error() string {
	if e.retried {
		return fmt.Sprintf("partition %s failed on alternate node %s after retry: %v", e.partition, e.node, e.err)
	}
	return fmt.Sprintf("partition %s failed on node %s: %v", e.partition, e.node, e.err)
}

func (e partitionExecutionError) Unwrap() error { return e.err }

// IsPartitionExecutionFailure reports whether err is a terminal partition failure.
func IsPartitionExecutionFailure(err error) bool {
	var e partitionExecutionError
	return errors.As(err, &e)
}

// reductionMismatchError means partial outputs of unequal length reached the reducer.
type reductionMismatchError struct {
	index int
	want  int
	got   int
}

func (e reductionMismatchError) Error() string {
	return fmt.Sprintf("reduction mismatch: vector %d has length %d, want %d", e.index, e.got, e.want)
}

// IsReductionMismatch reports whether err came from reducing unequal-length vectors.
func IsReductionMismatch(err error) bool {
	var e reductionMismatchError
	return errors.As(err, &e)
}

// cancelledError is the outcome of CancelRequest or a canceled caller context.
type cancelledError struct{ id string }

func (e cancelledError) Error() string { return "request cancelled: " + e.id }

// IsCancelled reports whether err means the request was cancelled.
func IsCancelled(err error) bool {
	var e cancelledError
	return errors.As(err, &e)
}

// timeoutError means the request exceeded its latency bound.
type timeoutError struct {
	id      string
	limitMs int64
}

func (e timeoutError) Error() string {
	return fmt.Sprintf("request %s timed out after %dms", e.id, e.limitMs)
}

// IsTimeout reports whether err means the request exceeded its latency bound.
func IsTimeout(err error) bool {
	var e timeoutError
	return errors.As(err, &e)
}

// tooBusyError signals admission timeout.
type tooBusyError struct{ id string }

func (e tooBusyError) Error() string { return "coordinator too busy: " + e.id }

// IsTooBusy reports whether err indicates backpressure.
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// duplicateRequestError rejects a caller-supplied id that is already in flight.
type duplicateRequestError struct{ id string }

func (e duplicateRequestError) Error() string { return "request id already in flight: " + e.id }

// IsDuplicateRequest reports whether err is a duplicate in-flight request id.
func IsDuplicateRequest(err error) bool {
	var e duplicateRequestError
	return errors.As(err, &e)
}
