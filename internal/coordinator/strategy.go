package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"arinfer/pkg/types"
)

// Single-node fallback requirements and accounting.
const (
	fallbackMinRAMMB         = 8192
	fallbackMinBandwidthMbps = 100
	fallbackMemoryMB         = 2048
)

// execution accumulates per-request accounting while a strategy runs.
// Fields are guarded by mu because tensor-parallel partitions report
// concurrently.
type execution struct {
	entry *requestEntry
	model types.PartitionedModel

	mu        sync.Mutex
	nodesUsed int
	memoryMB  int64
	skewMs    float64
}

func (x *execution) partitionDone(memMB int64) {
	x.mu.Lock()
	x.nodesUsed++
	x.memoryMB += memMB
	x.mu.Unlock()
}

func (x *execution) addSkew(ms float64) {
	x.mu.Lock()
	x.skewMs += ms
	x.mu.Unlock()
}

func (x *execution) metrics() types.InferenceMetrics {
	x.mu.Lock()
	defer x.mu.Unlock()
	return types.InferenceMetrics{
		NodesUsed:              x.nodesUsed,
		MemoryUsedMB:           x.memoryMB,
		CoordinationOverheadMs: x.model.CoordinationOverheadMs + x.skewMs,
	}
}

// executePartitioned runs x.model's strategy over hidden and returns the final
// hidden state.
func (c *Coordinator) executePartitioned(ctx context.Context, x *execution, hidden []float32) ([]float32, error) {
	switch x.model.Strategy {
	case types.StrategyTensorParallel:
		return c.runParallel(ctx, x, x.model.Partitions, hidden)
	case types.StrategyHybrid:
		return c.runHybrid(ctx, x, hidden)
	default:
		return c.runSequential(ctx, x, x.model.Partitions, hidden)
	}
}

// runSequential feeds each assigned partition the previous partition's output.
func (c *Coordinator) runSequential(ctx context.Context, x *execution, parts []types.Partition, hidden []float32) ([]float32, error) {
	for _, part := range parts {
		if !part.Assigned() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return hidden, err
		}
		res, err := c.runPartition(ctx, x, part, hidden)
		if err != nil {
			return hidden, err
		}
		hidden = res.Output
	}
	return hidden, nil
}

// runParallel fans every assigned partition out over the same input, waits for
// all of them, and reduces their outputs in partition order. The first failure
// cancels the rest.
func (c *Coordinator) runParallel(ctx context.Context, x *execution, parts []types.Partition, input []float32) ([]float32, error) {
	assigned := make([]types.Partition, 0, len(parts))
	for _, part := range parts {
		if part.Assigned() {
			assigned = append(assigned, part)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputs := make([][]float32, len(assigned))
	latencies := make([]int64, len(assigned))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range assigned {
		g.Go(func() (err error) {
			// errgroup goroutines are outside Infer's recover
			defer func() {
				if r := recover(); r != nil {
					c.log.Error().Str("request_id", x.entry.id).Str("partition", part.ID).Interface("panic", r).Msg("partition panic")
					err = fmt.Errorf("internal error: %v", r)
				}
			}()
			res, err := c.runPartition(gctx, x, part, input)
			if err != nil {
				return err
			}
			outputs[i] = res.Output
			latencies[i] = res.LatencyMs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// barrier reached; a cancel that landed while partitions ran still wins
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x.addSkew(skew(latencies))
	return Reduce(outputs)
}

func skew(latencies []int64) float64 {
	if len(latencies) < 2 {
		return 0
	}
	lo, hi := latencies[0], latencies[0]
	for _, l := range latencies[1:] {
		lo = min(lo, l)
		hi = max(hi, l)
	}
	return float64(hi - lo)
}

// runHybrid treats the model as a pipeline of tensor-parallel stages:
// consecutive partitions sharing a Stage are reduced together and the result
// feeds the next stage. A stage with nothing assigned passes its input through.
func (c *Coordinator) runHybrid(ctx context.Context, x *execution, hidden []float32) ([]float32, error) {
	for _, group := range stageGroups(x.model.Partitions) {
		if !anyAssigned(group) {
			continue
		}
		out, err := c.runParallel(ctx, x, group, hidden)
		if err != nil {
			return hidden, err
		}
		hidden = out
	}
	return hidden, nil
}

func stageGroups(parts []types.Partition) [][]types.Partition {
	var groups [][]types.Partition
	for i, part := range parts {
		if i == 0 || part.Stage != parts[i-1].Stage {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], part)
	}
	return groups
}

func anyAssigned(parts []types.Partition) bool {
	for _, p := range parts {
		if p.Assigned() {
			return true
		}
	}
	return false
}

// runPartition executes part on its assigned node, retrying once on an
// alternate node when the failure is not a cancellation or timeout.
func (c *Coordinator) runPartition(ctx context.Context, x *execution, part types.Partition, input []float32) (types.PartitionResult, error) {
	res, err := c.runner.Execute(ctx, part.AssignedNode, part, input)
	if err == nil {
		c.partitionDone(x, part, res)
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	alt, ok := c.alternateNode(x.model, part)
	if !ok {
		c.log.Warn().Str("request_id", x.entry.id).Str("partition", part.ID).Str("node", part.AssignedNode).Err(err).Msg("partition failed; no alternate node")
		return res, partitionExecutionError{partition: part.ID, node: part.AssignedNode, err: err}
	}
	partitionRetriesTotal.Inc()
	c.log.Warn().Str("request_id", x.entry.id).Str("partition", part.ID).Str("node", part.AssignedNode).Str("alternate", alt).Err(err).Msg("partition failed; retrying")
	c.publish(EventPartitionRetry, x.entry.id, map[string]any{"partition": part.ID, "failed_node": part.AssignedNode, "node": alt})

	res, err = c.runner.Execute(ctx, alt, part, input)
	if err == nil {
		c.partitionDone(x, part, res)
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, partitionExecutionError{partition: part.ID, node: alt, retried: true, err: err}
}

func (c *Coordinator) partitionDone(x *execution, part types.Partition, res types.PartitionResult) {
	c.registry.record(x.entry, res)
	x.partitionDone(c.partitioner.EstimatePartitionMemory(part))
	partitionDuration.WithLabelValues(res.NodeID).Observe(float64(res.LatencyMs) / 1000)
	c.log.Debug().Str("request_id", x.entry.id).Str("partition", part.ID).Str("node", res.NodeID).Int64("latency_ms", res.LatencyMs).Msg("partition done")
	c.publish(EventPartitionDone, x.entry.id, map[string]any{"partition": part.ID, "node": res.NodeID, "latency_ms": res.LatencyMs})
}

// alternateNode prefers another healthy node already serving this model, then
// any node able to hold the partition.
func (c *Coordinator) alternateNode(model types.PartitionedModel, part types.Partition) (string, bool) {
	failed := part.AssignedNode
	for _, p := range model.Partitions {
		if p.AssignedNode == "" || p.AssignedNode == failed {
			continue
		}
		if c.health == nil || c.health.Online(p.AssignedNode) {
			return p.AssignedNode, true
		}
	}
	if c.selector == nil {
		return "", false
	}
	return c.selector.FindBestNode(types.ComputeRequirements{
		MinRAMMB:  c.partitioner.EstimatePartitionMemory(part),
		ModelName: model.ModelName,
	}, failed)
}

// executeFallback serves an unpartitioned model on the best single node.
func (c *Coordinator) executeFallback(ctx context.Context, x *execution, req types.InferenceRequest, maxLatencyMs int64) (types.Output, error) {
	x.mu.Lock()
	x.nodesUsed = 1
	x.memoryMB = fallbackMemoryMB
	x.mu.Unlock()

	var node string
	ok := false
	if c.selector != nil {
		node, ok = c.selector.FindBestNode(types.ComputeRequirements{
			GPU:              true,
			MinRAMMB:         fallbackMinRAMMB,
			MinBandwidthMbps: fallbackMinBandwidthMbps,
			ModelName:        req.ModelName,
			MaxLatencyMs:     maxLatencyMs,
		})
	}
	if !ok {
		return types.ErrorOutput(noNodesMessage), nodeUnavailableError{model: req.ModelName}
	}
	c.publish(EventRoute, x.entry.id, map[string]any{"strategy": strategySingleNode, "node": node})

	start := time.Now()
	if err := sleepCtx(ctx, c.fallbackDelay); err != nil {
		return types.Output{}, err
	}
	res := types.PartitionResult{PartitionID: req.ModelName, NodeID: node, LatencyMs: time.Since(start).Milliseconds()}
	c.registry.record(x.entry, res)
	partitionDuration.WithLabelValues(node).Observe(float64(res.LatencyMs) / 1000)

	hidden := InitialHiddenState(req.Input, c.embeddingWidth)
	return c.finalOutput(hidden, req.Parameters), nil
}

// finalOutput decodes hidden into text, or returns it directly when the caller
// asked for an embedding.
func (c *Coordinator) finalOutput(hidden []float32, params types.Parameters) types.Output {
	if params.Embed {
		return types.EmbeddingOutput(hidden)
	}
	return types.TextOutput(Decode(hidden, params))
}
