package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"arinfer/internal/common/fsutil"
	"arinfer/pkg/types"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultAddr             = ":8080"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultNodeStaleAfterS  = 90
	DefaultMaxBodyBytes     = 1 << 20
	defaultMaxInflight      = 64
	defaultMaxQueueWaitMs   = 30000
	defaultPartitionDelayMs = 10
	defaultFallbackDelayMs  = 50
	defaultEmbeddingWidth   = 8
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`
	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	// NodeStaleAfterS marks remote nodes offline after this many seconds
	// without a heartbeat.
	NodeStaleAfterS int `json:"node_stale_after_s" yaml:"node_stale_after_s" toml:"node_stale_after_s"`

	Coordinator Coordinator              `json:"coordinator" yaml:"coordinator" toml:"coordinator"`
	Partitioner Partitioner              `json:"partitioner" yaml:"partitioner" toml:"partitioner"`
	Nodes       []types.NodeCapabilities `json:"nodes" yaml:"nodes" toml:"nodes"`
	Models      []Model                  `json:"models" yaml:"models" toml:"models"`
	CORS        CORS                     `json:"cors" yaml:"cors" toml:"cors"`

	// ModelsDir is scanned for *.gguf files at startup. Each file not named
	// in Models becomes a pipeline model with one partition per declared node.
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
}

// Coordinator tunes request execution.
type Coordinator struct {
	MaxInflight         int   `json:"max_inflight" yaml:"max_inflight" toml:"max_inflight"`
	MaxQueueWaitMs      int64 `json:"max_queue_wait_ms" yaml:"max_queue_wait_ms" toml:"max_queue_wait_ms"`
	PartitionDelayMs    int64 `json:"partition_delay_ms" yaml:"partition_delay_ms" toml:"partition_delay_ms"`
	FallbackDelayMs     int64 `json:"fallback_delay_ms" yaml:"fallback_delay_ms" toml:"fallback_delay_ms"`
	DefaultMaxLatencyMs int64 `json:"default_max_latency_ms" yaml:"default_max_latency_ms" toml:"default_max_latency_ms"`
	EmbeddingWidth      int   `json:"embedding_width" yaml:"embedding_width" toml:"embedding_width"`
}

// Partitioner tunes partition layout and overhead estimates. Zero fields use
// the partition package defaults.
type Partitioner struct {
	Layers                int     `json:"layers" yaml:"layers" toml:"layers"`
	HopMs                 float64 `json:"hop_ms" yaml:"hop_ms" toml:"hop_ms"`
	AllReduceMs           float64 `json:"all_reduce_ms" yaml:"all_reduce_ms" toml:"all_reduce_ms"`
	HybridWidth           int     `json:"hybrid_width" yaml:"hybrid_width" toml:"hybrid_width"`
	ActivationOverheadPct int     `json:"activation_overhead_pct" yaml:"activation_overhead_pct" toml:"activation_overhead_pct"`
}

// Model describes a model to partition at startup. Partitions are assigned
// round-robin over Nodes; an empty Nodes list leaves them unassigned.
type Model struct {
	Name       string         `json:"name" yaml:"name" toml:"name"`
	SizeMB     int64          `json:"size_mb" yaml:"size_mb" toml:"size_mb"`
	Partitions int            `json:"partitions" yaml:"partitions" toml:"partitions"`
	Strategy   types.Strategy `json:"strategy" yaml:"strategy" toml:"strategy"`
	Nodes      []string       `json:"nodes" yaml:"nodes" toml:"nodes"`
}

// CORS is opt-in; nothing is added to the router unless Enabled.
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. A leading ~ in path is expanded.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields with package defaults.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.NodeStaleAfterS <= 0 {
		c.NodeStaleAfterS = DefaultNodeStaleAfterS
	}
	co := &c.Coordinator
	if co.MaxInflight <= 0 {
		co.MaxInflight = defaultMaxInflight
	}
	if co.MaxQueueWaitMs <= 0 {
		co.MaxQueueWaitMs = defaultMaxQueueWaitMs
	}
	if co.PartitionDelayMs <= 0 {
		co.PartitionDelayMs = defaultPartitionDelayMs
	}
	if co.FallbackDelayMs <= 0 {
		co.FallbackDelayMs = defaultFallbackDelayMs
	}
	if co.EmbeddingWidth <= 0 {
		co.EmbeddingWidth = defaultEmbeddingWidth
	}
	for i := range c.Models {
		if c.Models[i].Partitions <= 0 {
			c.Models[i].Partitions = 1
		}
		if c.Models[i].Strategy == "" {
			c.Models[i].Strategy = types.StrategyPipeline
		}
	}
}

// Validate reports configuration errors that defaults cannot repair.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if n.NodeID == "" {
			return fmt.Errorf("nodes[%d]: id is required", i)
		}
		if seen[n.NodeID] {
			return fmt.Errorf("nodes[%d]: duplicate id %q", i, n.NodeID)
		}
		seen[n.NodeID] = true
	}
	for i, m := range c.Models {
		if m.Name == "" {
			return fmt.Errorf("models[%d]: name is required", i)
		}
		if !m.Strategy.Valid() {
			return fmt.Errorf("models[%d]: unknown strategy %q", i, m.Strategy)
		}
		for _, id := range m.Nodes {
			if !seen[id] {
				return fmt.Errorf("models[%d]: node %q is not declared", i, id)
			}
		}
	}
	return nil
}
