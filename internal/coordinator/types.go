package coordinator

import (
	"context"

	"arinfer/pkg/types"
)

// State is the lifecycle state of one request.
type State string

const (
	StateSubmitted State = "submitted"
	StateRouting   State = "routing"
	StateExecuting State = "executing"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateErrored   State = "errored"
	StateCleanedUp State = "cleaned_up"
)

// NodeSelector picks a node for a workload. Implementations are owned
// elsewhere; the coordinator only queries them.
type NodeSelector interface {
	// FindBestNode returns a node satisfying req, skipping ids in exclude.
	FindBestNode(req types.ComputeRequirements, exclude ...string) (string, bool)
}

// ModelPartitioner answers how a model is split. Read-only from here.
type ModelPartitioner interface {
	GetPartitionedModel(modelName string) (types.PartitionedModel, bool)
	EstimatePartitionMemory(p types.Partition) int64
}

// NodeHealth is optionally implemented by a NodeSelector so runners and
// retries can skip nodes known to be offline.
type NodeHealth interface {
	Online(nodeID string) bool
}

// PartitionRunner executes one partition on one node.
type PartitionRunner interface {
	// Execute runs part on nodeID with input and reports its own elapsed time.
	// Implementations must not mutate input and must return when ctx is done.
	Execute(ctx context.Context, nodeID string, part types.Partition, input []float32) (types.PartitionResult, error)
}
