// Package partition splits models into partitions and tracks which node owns
// each partition.
package partition

import (
	"fmt"
	"sort"
	"sync"

	"arinfer/pkg/types"
)

// Defaults applied when corresponding Options fields are unset.
const (
	defaultLayers             = 80
	defaultHopMs              = 5.0
	defaultAllReduceMs        = 4.0
	defaultHybridWidth        = 2
	defaultActivationOverhead = 10 // percent of weights
)

// Options tunes how partitions are laid out and how coordination cost is
// estimated.
type Options struct {
	// Layers is the layer count assumed for every model.
	Layers int
	// HopMs is the estimated cost of handing a hidden state to the next node.
	HopMs float64
	// AllReduceMs is the estimated per-participant cost of one reduction.
	AllReduceMs float64
	// HybridWidth is the number of partitions per tensor-parallel stage.
	HybridWidth int
	// ActivationOverheadPct is added on top of weight size by EstimatePartitionMemory.
	ActivationOverheadPct int
}

func (o Options) withDefaults() Options {
	if o.Layers <= 0 {
		o.Layers = defaultLayers
	}
	if o.HopMs <= 0 {
		o.HopMs = defaultHopMs
	}
	if o.AllReduceMs <= 0 {
		o.AllReduceMs = defaultAllReduceMs
	}
	if o.HybridWidth <= 0 {
		o.HybridWidth = defaultHybridWidth
	}
	if o.ActivationOverheadPct <= 0 {
		o.ActivationOverheadPct = defaultActivationOverhead
	}
	return o
}

// Partitioner is an in-memory model partition table. Safe for concurrent use.
type Partitioner struct {
	opts Options

	mu     sync.RWMutex
	models map[string]*types.PartitionedModel
}

// New returns a Partitioner with opts (zero fields take package defaults).
func New(opts Options) *Partitioner {
	return &Partitioner{
		opts:   opts.withDefaults(),
		models: make(map[string]*types.PartitionedModel),
	}
}

// GetPartitionedModel returns a copy of the partition plan for modelName.
func (p *Partitioner) GetPartitionedModel(modelName string) (types.PartitionedModel, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.models[modelName]
	if !ok {
		return types.PartitionedModel{}, false
	}
	return m.Clone(), true
}

// Models lists partitioned model names in sorted order.
func (p *Partitioner) Models() []string {
	p.mu.RLock()
	out := make([]string, 0, len(p.models))
	for name := range p.models {
		out = append(out, name)
	}
	p.mu.RUnlock()
	sort.Strings(out)
	return out
}

// PartitionModel splits modelName into count partitions using strategy and
// stores the plan, replacing any previous one. Partitions start unassigned.
func (p *Partitioner) PartitionModel(modelName string, sizeMB int64, count int, strategy types.Strategy) ([]types.Partition, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if count < 1 {
		return nil, fmt.Errorf("partition count must be positive, got %d", count)
	}
	if sizeMB <= 0 {
		return nil, fmt.Errorf("model size must be positive, got %d", sizeMB)
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("unknown partitioning strategy %q", strategy)
	}

	parts := make([]types.Partition, count)
	per := sizeMB / int64(count)
	for i := range parts {
		parts[i] = types.Partition{
			ID:     fmt.Sprintf("%s-p%d", modelName, i),
			SizeMB: per,
		}
	}
	parts[count-1].SizeMB += sizeMB - per*int64(count)

	var overhead float64
	switch strategy {
	case types.StrategyTensorParallel:
		// every shard spans all layers
		for i := range parts {
			parts[i].StartLayer, parts[i].EndLayer = 0, p.opts.Layers
		}
		overhead = float64(count) * p.opts.AllReduceMs
	case types.StrategyHybrid:
		width := p.opts.HybridWidth
		stages := (count + width - 1) / width
		for i := range parts {
			parts[i].Stage = i / width
			parts[i].StartLayer, parts[i].EndLayer = layerRange(p.opts.Layers, stages, parts[i].Stage)
		}
		overhead = float64(stages-1)*p.opts.HopMs + float64(count)*p.opts.AllReduceMs
	default:
		for i := range parts {
			parts[i].StartLayer, parts[i].EndLayer = layerRange(p.opts.Layers, count, i)
		}
		overhead = float64(count-1) * p.opts.HopMs
	}

	m := &types.PartitionedModel{
		ModelName:              modelName,
		Strategy:               strategy,
		Partitions:             parts,
		CoordinationOverheadMs: overhead,
	}
	p.mu.Lock()
	p.models[modelName] = m
	p.mu.Unlock()
	return append([]types.Partition(nil), parts...), nil
}

// layerRange returns the [start, end) layers of slice i out of n.
func layerRange(layers, n, i int) (int, int) {
	per := layers / n
	start := i * per
	end := start + per
	if i == n-1 {
		end = layers
	}
	return start, end
}

// AssignPartitionsToNodes sets the owning node for the listed partition ids.
// Nothing is applied if any id is unknown.
func (p *Partitioner) AssignPartitionsToNodes(modelName string, assignment map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.models[modelName]
	if !ok {
		return fmt.Errorf("model %q is not partitioned", modelName)
	}
	index := make(map[string]int, len(m.Partitions))
	for i, part := range m.Partitions {
		index[part.ID] = i
	}
	for pid := range assignment {
		if _, ok := index[pid]; !ok {
			return fmt.Errorf("model %q has no partition %q", modelName, pid)
		}
	}
	for pid, node := range assignment {
		m.Partitions[index[pid]].AssignedNode = node
	}
	return nil
}

// AssignRoundRobin assigns partitions to nodeIDs in order, wrapping around.
func (p *Partitioner) AssignRoundRobin(modelName string, nodeIDs []string) error {
	if len(nodeIDs) == 0 {
		return fmt.Errorf("no nodes to assign")
	}
	m, ok := p.GetPartitionedModel(modelName)
	if !ok {
		return fmt.Errorf("model %q is not partitioned", modelName)
	}
	assignment := make(map[string]string, len(m.Partitions))
	for i, part := range m.Partitions {
		assignment[part.ID] = nodeIDs[i%len(nodeIDs)]
	}
	return p.AssignPartitionsToNodes(modelName, assignment)
}

// EstimatePartitionMemory returns the expected resident size of a partition
// in MB: weights plus activation headroom.
func (p *Partitioner) EstimatePartitionMemory(part types.Partition) int64 {
	return part.SizeMB + part.SizeMB*int64(p.opts.ActivationOverheadPct)/100
}
