package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"arinfer/internal/nodes"
	"arinfer/internal/partition"
	"arinfer/pkg/types"
)

var errInjected = errors.New("injected failure")

// gpuNode returns capabilities that satisfy the single-node fallback.
func gpuNode(id string) types.NodeCapabilities {
	return types.NodeCapabilities{NodeID: id, GPU: true, RAMMB: 16384, BandwidthMbps: 400, LatencyMs: 5}
}

// newTopology registers the given node ids and returns a selector/partitioner pair.
func newTopology(t *testing.T, ids ...string) (*nodes.Selector, *partition.Partitioner) {
	t.Helper()
	sel := nodes.NewSelector()
	for _, id := range ids {
		if err := sel.RegisterNode(gpuNode(id)); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	return sel, partition.New(partition.Options{Layers: 32, HybridWidth: 2})
}

// partitionModel splits name and assigns it round-robin over nodeIDs.
func partitionModel(t *testing.T, p *partition.Partitioner, name string, count int, strategy types.Strategy, nodeIDs ...string) {
	t.Helper()
	if _, err := p.PartitionModel(name, 1000*int64(count), count, strategy); err != nil {
		t.Fatalf("partition %s: %v", name, err)
	}
	if len(nodeIDs) > 0 {
		if err := p.AssignRoundRobin(name, nodeIDs); err != nil {
			t.Fatalf("assign %s: %v", name, err)
		}
	}
}

// fakeRunner is an in-memory PartitionRunner with injectable behaviour.
type fakeRunner struct {
	delay     time.Duration
	fail      func(nodeID string, part types.Partition) error
	transform func(nodeID string, part types.Partition, in []float32) []float32
	panicOn   string
	// block makes Execute wait for ctx to end.
	block bool
	// gate, when set, holds every call until gateN calls have arrived.
	gate  chan struct{}
	gateN int

	mu      sync.Mutex
	calls   []string
	arrived int
	started chan string
}

func (f *fakeRunner) Execute(ctx context.Context, nodeID string, part types.Partition, input []float32) (types.PartitionResult, error) {
	start := time.Now()
	f.mu.Lock()
	f.calls = append(f.calls, part.ID+"@"+nodeID)
	f.arrived++
	if f.gate != nil && f.arrived == f.gateN {
		close(f.gate)
	}
	f.mu.Unlock()
	if f.started != nil {
		select {
		case f.started <- part.ID:
		default:
		}
	}
	if part.ID == f.panicOn {
		panic("runner exploded")
	}
	if f.fail != nil {
		if err := f.fail(nodeID, part); err != nil {
			return types.PartitionResult{}, err
		}
	}
	if f.block {
		<-ctx.Done()
		return types.PartitionResult{}, ctx.Err()
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return types.PartitionResult{}, ctx.Err()
		}
	}
	if err := sleepCtx(ctx, f.delay); err != nil {
		return types.PartitionResult{}, err
	}
	out := append([]float32(nil), input...)
	if f.transform != nil {
		out = f.transform(nodeID, part, input)
	}
	return types.PartitionResult{PartitionID: part.ID, NodeID: nodeID, Output: out, LatencyMs: time.Since(start).Milliseconds()}, nil
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// textRequest builds a text request for model.
func textRequest(model, text string) types.InferenceRequest {
	return types.InferenceRequest{ModelName: model, Input: types.TextInput(text)}
}

// waitRegistered polls until id is in flight.
func waitRegistered(t *testing.T, c *Coordinator, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !c.Registry().Contains(id) {
		if time.Now().After(deadline) {
			t.Fatalf("request %s never registered", id)
		}
		time.Sleep(time.Millisecond)
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}
