// Package nodes tracks compute-node capabilities and answers which node can
// satisfy a workload's requirements.
package nodes

import (
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"arinfer/pkg/types"
)

const defaultCacheSize = 128

// Selector is an in-memory node registry. It is safe for concurrent use.
type Selector struct {
	mu      sync.RWMutex
	nodes   map[string]types.NodeCapabilities
	localID string
	now     func() time.Time
	// best-node answers keyed by requirements. Purged under mu.Lock on any
	// membership change and filled under mu.RLock, so an answer computed
	// before a change is never stored after the purge.
	cache *lru.Cache[string, string]
	// scanned, when set, runs after a FindBestNode scan while mu is held.
	scanned func()
}

// NewSelector returns an empty selector.
func NewSelector() *Selector {
	c, err := lru.New[string, string](defaultCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &Selector{
		nodes: make(map[string]types.NodeCapabilities),
		now:   time.Now,
		cache: c,
	}
}

// RegisterLocalNode records the node this process runs on. Local nodes win
// ties in FindBestNode.
func (s *Selector) RegisterLocalNode(caps types.NodeCapabilities) error {
	caps.Local = true
	if err := s.RegisterNode(caps); err != nil {
		return err
	}
	s.mu.Lock()
	s.localID = caps.NodeID
	s.mu.Unlock()
	return nil
}

// RegisterNode adds or replaces a node. The node is marked online.
func (s *Selector) RegisterNode(caps types.NodeCapabilities) error {
	if caps.NodeID == "" {
		return fmt.Errorf("node id is required")
	}
	caps.Status = types.NodeOnline
	caps.LastSeen = s.now()
	caps.Models = append([]string(nil), caps.Models...)
	s.mu.Lock()
	s.nodes[caps.NodeID] = caps
	s.cache.Purge()
	s.mu.Unlock()
	return nil
}

// DiscoverNodes returns every known node sorted by id.
func (s *Selector) DiscoverNodes() []types.NodeCapabilities {
	s.mu.RLock()
	out := make([]types.NodeCapabilities, 0, len(s.nodes))
	for _, n := range s.nodes {
		n.Models = append([]string(nil), n.Models...)
		out = append(out, n)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Len returns the number of known nodes.
func (s *Selector) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Online reports whether id is known and not marked offline.
func (s *Selector) Online(id string) bool {
	s.mu.RLock()
	n, ok := s.nodes[id]
	s.mu.RUnlock()
	return ok && n.Status == types.NodeOnline
}

// Heartbeat refreshes LastSeen and brings the node back online.
func (s *Selector) Heartbeat(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	if n.Status == types.NodeOffline {
		s.cache.Purge()
	}
	n.Status = types.NodeOnline
	n.LastSeen = s.now()
	s.nodes[id] = n
	return true
}

// MarkOffline excludes a node from selection until its next heartbeat.
func (s *Selector) MarkOffline(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if ok {
		n.Status = types.NodeOffline
		s.nodes[id] = n
		s.cache.Purge()
	}
	return ok
}

// PruneStale marks remote nodes offline when they haven't been seen within
// maxAge. The local node is never pruned. Returns the number of nodes marked.
func (s *Selector) PruneStale(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	count := 0
	s.mu.Lock()
	for id, n := range s.nodes {
		if n.Local || n.Status == types.NodeOffline {
			continue
		}
		if n.LastSeen.Before(cutoff) {
			n.Status = types.NodeOffline
			s.nodes[id] = n
			count++
		}
	}
	if count > 0 {
		s.cache.Purge()
	}
	s.mu.Unlock()
	return count
}

// FindBestNode returns the id of the best online node that satisfies req,
// ignoring any ids listed in exclude.
//
// Ranking: local node first, then lowest latency, then highest bandwidth,
// then most RAM, then node id.
func (s *Selector) FindBestNode(req types.ComputeRequirements, exclude ...string) (string, bool) {
	key := cacheKey(req)
	if len(exclude) == 0 {
		if id, ok := s.cache.Get(key); ok {
			return id, true
		}
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *types.NodeCapabilities
	for _, n := range s.nodes {
		if _, ok := skip[n.NodeID]; ok {
			continue
		}
		if !n.Satisfies(req) {
			continue
		}
		cand := n
		if best == nil || better(cand, *best) {
			best = &cand
		}
	}
	if s.scanned != nil {
		s.scanned()
	}
	if best == nil {
		return "", false
	}
	if len(exclude) == 0 {
		s.cache.Add(key, best.NodeID)
	}
	return best.NodeID, true
}

func better(a, b types.NodeCapabilities) bool {
	if a.Local != b.Local {
		return a.Local
	}
	if a.LatencyMs != b.LatencyMs {
		return a.LatencyMs < b.LatencyMs
	}
	if a.BandwidthMbps != b.BandwidthMbps {
		return a.BandwidthMbps > b.BandwidthMbps
	}
	if a.RAMMB != b.RAMMB {
		return a.RAMMB > b.RAMMB
	}
	return a.NodeID < b.NodeID
}

func cacheKey(r types.ComputeRequirements) string {
	return fmt.Sprintf("%t|%d|%d|%s|%d", r.GPU, r.MinRAMMB, r.MinBandwidthMbps, r.ModelName, r.MaxLatencyMs)
}
