package types

import "time"

// Strategy is the execution shape of a partitioned model.
type Strategy string

const (
	StrategyLayerWise      Strategy = "layer_wise"
	StrategyPipeline       Strategy = "pipeline"
	StrategyTensorParallel Strategy = "tensor_parallel"
	// StrategyHybrid runs consecutive groups of partitions that share a Stage as
	// tensor-parallel groups, chained one after another like a pipeline.
	StrategyHybrid Strategy = "hybrid"
)

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyLayerWise, StrategyPipeline, StrategyTensorParallel, StrategyHybrid:
		return true
	}
	return false
}

// Partition is a contiguous slice of a model assigned to (at most) one node.
type Partition struct {
	// Stable identifier, e.g. llama-70b-p0.
	// example: llama-70b-p0
	ID string `json:"id" yaml:"id" toml:"id" example:"llama-70b-p0"`
	// Node that owns this partition. Empty means unassigned; unassigned
	// partitions are skipped during execution.
	// example: glasses-0
	AssignedNode string `json:"assigned_node,omitempty" yaml:"assigned_node" toml:"assigned_node" example:"glasses-0"`
	// First layer (inclusive).
	StartLayer int `json:"start_layer" yaml:"start_layer" toml:"start_layer"`
	// Last layer (exclusive).
	EndLayer int `json:"end_layer" yaml:"end_layer" toml:"end_layer"`
	// Weight footprint in MB.
	// example: 8960
	SizeMB int64 `json:"size_mb" yaml:"size_mb" toml:"size_mb" example:"8960"`
	// Tensor-parallel group index for hybrid models.
	Stage int `json:"stage,omitempty" yaml:"stage" toml:"stage"`
}

// Assigned reports whether the partition has an owning node.
func (p Partition) Assigned() bool { return p.AssignedNode != "" }

// PartitionedModel describes how a model is split. It is owned by the
// partitioner and treated as read-only by the coordinator.
type PartitionedModel struct {
	ModelName              string      `json:"model_name"`
	Strategy               Strategy    `json:"strategy"`
	Partitions             []Partition `json:"partitions"`
	CoordinationOverheadMs float64     `json:"coordination_overhead_ms"`
}

// Clone returns a deep copy so callers can't mutate partitioner state.
func (m PartitionedModel) Clone() PartitionedModel {
	out := m
	out.Partitions = append([]Partition(nil), m.Partitions...)
	return out
}

// PartitionResult is the output of one partition on one node.
type PartitionResult struct {
	PartitionID string    `json:"partition_id"`
	NodeID      string    `json:"node_id"`
	Output      []float32 `json:"-"`
	LatencyMs   int64     `json:"latency_ms"`
}

// ComputeRequirements is what a workload needs from a node.
type ComputeRequirements struct {
	GPU              bool   `json:"gpu"`
	MinRAMMB         int64  `json:"min_ram_mb"`
	MinBandwidthMbps int64  `json:"min_bandwidth_mbps"`
	ModelName        string `json:"model_name,omitempty"`
	// Zero means no latency bound.
	MaxLatencyMs int64 `json:"max_latency_ms,omitempty"`
}

// NodeStatus is the liveness of a compute node.
type NodeStatus string

const (
	NodeOnline  NodeStatus = "online"
	NodeOffline NodeStatus = "offline"
)

// NodeCapabilities describes a compute node for scheduling purposes.
type NodeCapabilities struct {
	// example: phone-0
	NodeID string `json:"node_id" yaml:"id" toml:"id" example:"phone-0"`
	GPU    bool   `json:"gpu" yaml:"gpu" toml:"gpu"`
	// example: 12288
	RAMMB int64 `json:"ram_mb" yaml:"ram_mb" toml:"ram_mb" example:"12288"`
	// example: 400
	BandwidthMbps int64 `json:"bandwidth_mbps" yaml:"bandwidth_mbps" toml:"bandwidth_mbps" example:"400"`
	// Estimated round-trip latency to the node.
	// example: 8
	LatencyMs int64 `json:"latency_ms" yaml:"latency_ms" toml:"latency_ms" example:"8"`
	// Models the node can serve; empty means any.
	Models   []string   `json:"models,omitempty" yaml:"models" toml:"models"`
	Local    bool       `json:"local" yaml:"local" toml:"local"`
	Status   NodeStatus `json:"status" yaml:"-" toml:"-"`
	LastSeen time.Time  `json:"last_seen" yaml:"-" toml:"-"`
}

// Serves reports whether the node lists modelName (or lists nothing).
func (n NodeCapabilities) Serves(modelName string) bool {
	if modelName == "" || len(n.Models) == 0 {
		return true
	}
	for _, m := range n.Models {
		if m == modelName {
			return true
		}
	}
	return false
}

// Satisfies checks the node against a set of requirements.
func (n NodeCapabilities) Satisfies(req ComputeRequirements) bool {
	if n.Status == NodeOffline {
		return false
	}
	if req.GPU && !n.GPU {
		return false
	}
	if n.RAMMB < req.MinRAMMB {
		return false
	}
	if n.BandwidthMbps < req.MinBandwidthMbps {
		return false
	}
	if req.MaxLatencyMs > 0 && n.LatencyMs > req.MaxLatencyMs {
		return false
	}
	return n.Serves(req.ModelName)
}
