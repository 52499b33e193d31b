package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arinfer/internal/coordinator"
	"arinfer/internal/httpapi"
	"arinfer/internal/nodes"
	"arinfer/internal/partition"
	"arinfer/pkg/types"
)

func gpuNode(id string, ramMB, latencyMs int64) types.NodeCapabilities {
	return types.NodeCapabilities{NodeID: id, GPU: true, RAMMB: ramMB, BandwidthMbps: 400, LatencyMs: latencyMs}
}

// newServer wires a real selector, partitioner and coordinator behind the
// HTTP API. setup registers nodes and partitions models before serving.
func newServer(t *testing.T, cfg coordinator.CoordinatorConfig, setup func(*nodes.Selector, *partition.Partitioner)) (*httptest.Server, *coordinator.Coordinator) {
	t.Helper()
	sel := nodes.NewSelector()
	part := partition.New(partition.Options{Layers: 32})
	if setup != nil {
		setup(sel, part)
	}
	cfg.Selector = sel
	cfg.Partitioner = part
	if cfg.PartitionDelay == 0 {
		cfg.PartitionDelay = time.Millisecond
	}
	if cfg.FallbackDelay == 0 {
		cfg.FallbackDelay = time.Millisecond
	}
	coord := coordinator.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(coord))
	t.Cleanup(srv.Close)
	return srv, coord
}

// partitionModel partitions and assigns a model, failing the test on error.
func partitionModel(t *testing.T, part *partition.Partitioner, name string, count int, strategy types.Strategy, nodeIDs ...string) {
	t.Helper()
	if _, err := part.PartitionModel(name, int64(1000*count), count, strategy); err != nil {
		t.Fatalf("partition %s: %v", name, err)
	}
	if len(nodeIDs) > 0 {
		if err := part.AssignRoundRobin(name, nodeIDs); err != nil {
			t.Fatalf("assign %s: %v", name, err)
		}
	}
}

func do(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodGet, url, nil)
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodPost, url, payload)
}

func httpDelete(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodDelete, url, nil)
}

// waitFor polls cond until it holds or two seconds pass.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// postAsync posts payload from a separate goroutine and delivers the status
// and body on the returned channel. Transport errors surface as status 0.
func postAsync(url string, payload []byte) <-chan asyncResult {
	ch := make(chan asyncResult, 1)
	go func() {
		resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
		if err != nil {
			ch <- asyncResult{body: []byte(err.Error())}
			return
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		ch <- asyncResult{status: resp.StatusCode, body: b}
	}()
	return ch
}

type asyncResult struct {
	status int
	body   []byte
}
