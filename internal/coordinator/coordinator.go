package coordinator

import (
	"time"

	"github.com/rs/zerolog"
)

// Coordinator executes inference requests over partitioned models, tracking
// each one in a Registry until it completes, fails or is cancelled. It is safe
// for concurrent use.
type Coordinator struct {
	selector    NodeSelector
	partitioner ModelPartitioner
	health      NodeHealth
	runner      PartitionRunner
	registry    *Registry

	fallbackDelay     time.Duration
	defaultMaxLatency time.Duration
	embeddingWidth    int

	// Admission
	slots        chan struct{}
	maxQueueWait time.Duration

	log       zerolog.Logger
	pub       EventPublisher
	startTime time.Time
}

// New builds a Coordinator over selector and partitioner with package defaults.
func New(selector NodeSelector, partitioner ModelPartitioner) *Coordinator {
	return NewWithConfig(CoordinatorConfig{
		Selector:    selector,
		Partitioner: partitioner,
	})
}

// Registry exposes the in-flight request registry.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Ready reports whether the coordinator can route work.
func (c *Coordinator) Ready() bool {
	return c.selector != nil && c.partitioner != nil
}
