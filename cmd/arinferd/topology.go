package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"arinfer/internal/config"
	"arinfer/internal/coordinator"
	"arinfer/internal/nodes"
	"arinfer/internal/partition"
	"arinfer/internal/registry"
	"arinfer/pkg/types"
)

// buildTopology registers configured nodes and partitions configured and
// discovered models.
func buildTopology(cfg config.Config) (*nodes.Selector, *partition.Partitioner, error) {
	sel := nodes.NewSelector()
	for _, n := range cfg.Nodes {
		var err error
		if n.Local {
			err = sel.RegisterLocalNode(n)
		} else {
			err = sel.RegisterNode(n)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("node %q: %w", n.NodeID, err)
		}
	}

	part := partition.New(partition.Options{
		Layers:                cfg.Partitioner.Layers,
		HopMs:                 cfg.Partitioner.HopMs,
		AllReduceMs:           cfg.Partitioner.AllReduceMs,
		HybridWidth:           cfg.Partitioner.HybridWidth,
		ActivationOverheadPct: cfg.Partitioner.ActivationOverheadPct,
	})
	discovered, err := discoveredModels(cfg)
	if err != nil {
		return nil, nil, err
	}
	models := append(append([]config.Model(nil), cfg.Models...), discovered...)
	for _, m := range models {
		if _, err := part.PartitionModel(m.Name, m.SizeMB, m.Partitions, m.Strategy); err != nil {
			return nil, nil, fmt.Errorf("model %q: %w", m.Name, err)
		}
		if len(m.Nodes) > 0 {
			if err := part.AssignRoundRobin(m.Name, m.Nodes); err != nil {
				return nil, nil, fmt.Errorf("model %q: %w", m.Name, err)
			}
		}
	}
	return sel, part, nil
}

// discoveredModels turns weight files under cfg.ModelsDir into pipeline
// models spread over every declared node. Models listed in cfg.Models win.
func discoveredModels(cfg config.Config) ([]config.Model, error) {
	if cfg.ModelsDir == "" {
		return nil, nil
	}
	found, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("models dir: %w", err)
	}
	declared := make(map[string]bool, len(cfg.Models))
	for _, m := range cfg.Models {
		declared[m.Name] = true
	}
	nodeIDs := make([]string, 0, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		nodeIDs = append(nodeIDs, n.NodeID)
	}
	var out []config.Model
	for _, f := range found {
		if declared[f.Name] {
			continue
		}
		out = append(out, config.Model{
			Name:       f.Name,
			SizeMB:     f.SizeMB,
			Partitions: max(len(nodeIDs), 1),
			Strategy:   types.StrategyPipeline,
			Nodes:      nodeIDs,
		})
	}
	return out, nil
}

// newCoordinator wires the coordinator to the configured topology.
func newCoordinator(cfg config.Config, sel *nodes.Selector, part *partition.Partitioner, log zerolog.Logger) *coordinator.Coordinator {
	co := cfg.Coordinator
	clog := log.With().Str("component", "coordinator").Logger()
	return coordinator.NewWithConfig(coordinator.CoordinatorConfig{
		Selector:          sel,
		Partitioner:       part,
		PartitionDelay:    time.Duration(co.PartitionDelayMs) * time.Millisecond,
		FallbackDelay:     time.Duration(co.FallbackDelayMs) * time.Millisecond,
		DefaultMaxLatency: time.Duration(co.DefaultMaxLatencyMs) * time.Millisecond,
		MaxInflight:       co.MaxInflight,
		MaxQueueWait:      time.Duration(co.MaxQueueWaitMs) * time.Millisecond,
		EmbeddingWidth:    co.EmbeddingWidth,
		Logger:            &clog,
	})
}
