package coordinator

import (
	"context"
	"time"
)

// beginExecution reserves one of the bounded execution slots, waiting at most
// maxQueueWait. Returns a release func to be deferred.
func (c *Coordinator) beginExecution(ctx context.Context, id string) (func(), error) {
	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	select {
	case c.slots <- struct{}{}:
		inflightRequests.Inc()
		return c.releaseSlot, nil
	default:
	}

	timer := time.NewTimer(c.maxQueueWait)
	defer timer.Stop()
	select {
	case c.slots <- struct{}{}:
		inflightRequests.Inc()
		return c.releaseSlot, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{id: id}
	}
}

func (c *Coordinator) releaseSlot() {
	<-c.slots
	inflightRequests.Dec()
}
