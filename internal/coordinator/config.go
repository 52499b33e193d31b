package coordinator

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding CoordinatorConfig fields are unset.
const (
	defaultMaxInflight    = 64
	defaultMaxQueueWait   = 30 * time.Second
	defaultPartitionDelay = 10 * time.Millisecond
	defaultFallbackDelay  = 50 * time.Millisecond
	defaultEmbeddingWidth = 8
)

// CoordinatorConfig encapsulates all tunables for Coordinator construction.
type CoordinatorConfig struct {
	Selector    NodeSelector
	Partitioner ModelPartitioner
	// Runner executes partitions. Defaults to a SimulatedRunner using
	// PartitionDelay, with node health taken from Selector when it implements
	// NodeHealth.
	Runner PartitionRunner

	PartitionDelay time.Duration
	FallbackDelay  time.Duration
	// DefaultMaxLatency bounds requests that carry no latency bound of their
	// own. Zero means unbounded.
	DefaultMaxLatency time.Duration

	MaxInflight  int
	MaxQueueWait time.Duration

	// EmbeddingWidth is the number of hidden values per input unit.
	EmbeddingWidth int

	Logger    *zerolog.Logger
	Publisher EventPublisher
}

// NewWithConfig constructs a Coordinator from CoordinatorConfig.
func NewWithConfig(cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		selector:          cfg.Selector,
		partitioner:       cfg.Partitioner,
		registry:          NewRegistry(),
		defaultMaxLatency: cfg.DefaultMaxLatency,
		pub:               cfg.Publisher,
	}
	// Apply defaults if unset
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = defaultMaxInflight
	}
	c.slots = make(chan struct{}, cfg.MaxInflight)
	if cfg.MaxQueueWait <= 0 {
		c.maxQueueWait = defaultMaxQueueWait
	} else {
		c.maxQueueWait = cfg.MaxQueueWait
	}
	if cfg.PartitionDelay <= 0 {
		cfg.PartitionDelay = defaultPartitionDelay
	}
	if cfg.FallbackDelay <= 0 {
		c.fallbackDelay = defaultFallbackDelay
	} else {
		c.fallbackDelay = cfg.FallbackDelay
	}
	if cfg.EmbeddingWidth <= 0 {
		c.embeddingWidth = defaultEmbeddingWidth
	} else {
		c.embeddingWidth = cfg.EmbeddingWidth
	}
	if h, ok := cfg.Selector.(NodeHealth); ok {
		c.health = h
	}
	if cfg.Runner != nil {
		c.runner = cfg.Runner
	} else {
		c.runner = SimulatedRunner{Delay: cfg.PartitionDelay, Health: c.health}
	}
	if cfg.Logger != nil {
		c.log = *cfg.Logger
	} else {
		c.log = zerolog.Nop()
	}
	if c.pub == nil {
		c.pub = noopPublisher{}
	}
	c.startTime = time.Now()
	return c
}
