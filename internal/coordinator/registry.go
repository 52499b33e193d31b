package coordinator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"arinfer/pkg/types"
)

const requestIDPrefix = "req-"

type requestEntry struct {
	id      string
	model   string
	state   State
	cancel  context.CancelFunc
	started time.Time
	results []types.PartitionResult
}

// Registry tracks in-flight requests by id. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*requestEntry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*requestEntry), now: time.Now}
}

// NewRequestID returns a fresh "req-" prefixed id.
func NewRequestID() string { return requestIDPrefix + uuid.NewString() }

// Register adds req, generating an id when req.RequestID is empty. A
// caller-supplied id that is already in flight is rejected.
func (r *Registry) Register(req types.InferenceRequest, cancel context.CancelFunc) (string, error) {
	e, err := r.add(req, cancel)
	if err != nil {
		return "", err
	}
	return e.id, nil
}

func (r *Registry) add(req types.InferenceRequest, cancel context.CancelFunc) (*requestEntry, error) {
	id := req.RequestID
	if id == "" {
		id = NewRequestID()
	}
	if cancel == nil {
		cancel = func() {}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return nil, duplicateRequestError{id: id}
	}
	e := &requestEntry{
		id:      id,
		model:   req.ModelName,
		state:   StateSubmitted,
		cancel:  cancel,
		started: r.now(),
	}
	r.entries[id] = e
	return e, nil
}

// Deregister removes id. Unknown ids are ignored.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// remove deletes e only if it is still the registered entry for its id.
func (r *Registry) remove(e *requestEntry) {
	r.mu.Lock()
	if cur, ok := r.entries[e.id]; ok && cur == e {
		delete(r.entries, e.id)
	}
	r.mu.Unlock()
}

// Cancel fires the cancel func for id and removes it. Returns false for
// unknown ids.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	e.cancel()
	return true
}

// Contains reports whether id is in flight.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// RecordPartitionResult appends res to id's results. Unknown ids are ignored.
func (r *Registry) RecordPartitionResult(id string, res types.PartitionResult) {
	r.mu.Lock()
	if e, ok := r.entries[id]; ok {
		e.results = append(e.results, res)
	}
	r.mu.Unlock()
}

func (r *Registry) record(e *requestEntry, res types.PartitionResult) {
	r.mu.Lock()
	if cur, ok := r.entries[e.id]; ok && cur == e {
		e.results = append(e.results, res)
	}
	r.mu.Unlock()
}

func (r *Registry) setState(e *requestEntry, s State) {
	r.mu.Lock()
	e.state = s
	r.mu.Unlock()
}

// Metrics summarises the partition results recorded so far for id.
func (r *Registry) Metrics(id string) (types.RequestMetrics, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return types.RequestMetrics{}, false
	}
	return summarize(e.results), true
}

func summarize(results []types.PartitionResult) types.RequestMetrics {
	var m types.RequestMetrics
	for _, res := range results {
		m.TotalLatencyMs += res.LatencyMs
	}
	m.NumPartitions = len(results)
	if m.NumPartitions > 0 {
		m.AvgPartitionLatencyMs = float64(m.TotalLatencyMs) / float64(m.NumPartitions)
	}
	return m
}

// Len returns the number of in-flight requests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// InFlight lists in-flight requests, oldest first.
func (r *Registry) InFlight() []types.InFlightRequest {
	r.mu.RLock()
	out := make([]types.InFlightRequest, 0, len(r.entries))
	started := make(map[string]time.Time, len(r.entries))
	for _, e := range r.entries {
		out = append(out, types.InFlightRequest{
			RequestID:   e.id,
			ModelName:   e.model,
			State:       string(e.state),
			StartedUnix: e.started.Unix(),
			Partitions:  len(e.results),
		})
		started[e.id] = e.started
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := started[out[i].RequestID], started[out[j].RequestID]
		if a.Equal(b) {
			return out[i].RequestID < out[j].RequestID
		}
		return a.Before(b)
	})
	return out
}
