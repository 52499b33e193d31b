package coordinator

import (
	"context"
	"time"

	"arinfer/pkg/types"
)

// SimulatedRunner stands in for remote partition execution: it waits Delay,
// then echoes the input as the partition output.
type SimulatedRunner struct {
	Delay time.Duration
	// Health, when set, makes offline nodes fail with a node-unreachable error.
	Health NodeHealth
}

func (r SimulatedRunner) Execute(ctx context.Context, nodeID string, part types.Partition, input []float32) (types.PartitionResult, error) {
	if r.Health != nil && !r.Health.Online(nodeID) {
		return types.PartitionResult{}, nodeUnreachableError{node: nodeID}
	}
	start := time.Now()
	if err := sleepCtx(ctx, r.Delay); err != nil {
		return types.PartitionResult{}, err
	}
	out := make([]float32, len(input))
	copy(out, input)
	return types.PartitionResult{
		PartitionID: part.ID,
		NodeID:      nodeID,
		Output:      out,
		LatencyMs:   time.Since(start).Milliseconds(),
	}, nil
}

// sleepCtx waits d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
