package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arinfer/pkg/types"
)

type mockService struct {
	status  types.StatusResponse
	nodes   []types.NodeCapabilities
	ready   bool
	resp    types.InferenceResponse
	metrics map[string]types.RequestMetrics
	lastReq types.InferenceRequest
	ctxErr  error
	cancels []string
}

func (m *mockService) Infer(ctx context.Context, req types.InferenceRequest) types.InferenceResponse {
	m.lastReq = req
	m.ctxErr = ctx.Err()
	return m.resp
}

func (m *mockService) CancelRequest(id string) bool {
	m.cancels = append(m.cancels, id)
	_, ok := m.metrics[id]
	return ok
}

func (m *mockService) RequestMetrics(id string) (types.RequestMetrics, bool) {
	rm, ok := m.metrics[id]
	return rm, ok
}

func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Nodes() []types.NodeCapabilities { return m.nodes }
func (m *mockService) Ready() bool { return m.ready }

func completed(text string) types.InferenceResponse {
	return types.InferenceResponse{
		RequestID: "req-1",
		Outcome:   types.OutcomeCompleted,
		Output:    types.TextOutput(text),
		Metrics:   types.InferenceMetrics{LatencyMs: 12, NodesUsed: 2},
	}
}

func postInfer(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/infer", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const validBody = `{"model_name":"llama-70b","input":{"kind":"text","text":"hi"},"parameters":{"max_tokens":3}}`

func TestInfer_JSON(t *testing.T) {
	svc := &mockService{resp: completed("one two three")}
	w := postInfer(t, NewMux(svc), validBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.InferenceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.RequestID != "req-1" || body.Output.Text != "one two three" || body.Metrics.NodesUsed != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if svc.lastReq.ModelName != "llama-70b" || svc.lastReq.Parameters.MaxTokens != 3 || svc.lastReq.Input.Text != "hi" {
		t.Fatalf("request not decoded: %+v", svc.lastReq)
	}
	if svc.ctxErr != nil {
		t.Fatalf("service saw a done context: %v", svc.ctxErr)
	}
}

func TestInfer_Stream(t *testing.T) {
	svc := &mockService{resp: completed("one two three")}
	w := postInfer(t, NewMux(svc), `{"model_name":"m","input":{"kind":"text","text":"hi"},"parameters":{"stream":true}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content-type=%s", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 3 deltas and a final line, got %d: %q", len(lines), w.Body.String())
	}
	var text strings.Builder
	for _, line := range lines[:3] {
		var c streamChunk
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		text.WriteString(c.Delta)
	}
	if text.String() != "one two three" {
		t.Fatalf("deltas reassemble to %q", text.String())
	}
	var final streamChunk
	if err := json.Unmarshal([]byte(lines[3]), &final); err != nil {
		t.Fatalf("final: %v", err)
	}
	if !final.Done || final.Response == nil || final.Response.RequestID != "req-1" {
		t.Fatalf("unexpected final line: %+v", final)
	}
}

func TestInfer_OutcomeStatusMapping(t *testing.T) {
	cases := map[string]int{
		types.OutcomeTooBusy:   http.StatusTooManyRequests,
		types.OutcomeTimeout:   http.StatusGatewayTimeout,
		types.OutcomeNoNode:    http.StatusOK,
		types.OutcomeDuplicate: http.StatusConflict,
		types.OutcomeCancelled: statusClientClosed,
		types.OutcomeError:     http.StatusInternalServerError,
	}
	for outcome, want := range cases {
		svc := &mockService{resp: types.InferenceResponse{RequestID: "r", Outcome: outcome, Output: types.ErrorOutput(outcome)}}
		w := postInfer(t, NewMux(svc), validBody)
		if w.Code != want {
			t.Fatalf("%s: status=%d want %d", outcome, w.Code, want)
		}
		var body types.InferenceResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: json: %v", outcome, err)
		}
		if !body.Output.IsError() || body.Output.Error != outcome {
			t.Fatalf("%s: error output not passed through: %+v", outcome, body.Output)
		}
	}
}

func TestInfer_Validation(t *testing.T) {
	svc := &mockService{resp: completed("x")}
	h := NewMux(svc)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", "not-json", http.StatusBadRequest},
		{"missing model", `{"input":{"kind":"text","text":"hi"}}`, http.StatusBadRequest},
		{"bad kind", `{"model_name":"m","input":{"kind":"smell"}}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		if w := postInfer(t, h, c.body); w.Code != c.want {
			t.Fatalf("%s: status=%d want %d", c.name, w.Code, c.want)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/infer", bytes.NewBufferString(validBody))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("missing content-type: status=%d", w.Code)
	}
}

func TestInfer_BodyLimit(t *testing.T) {
	SetMaxBodyBytes(16)
	t.Cleanup(func() { SetMaxBodyBytes(0) })
	w := postInfer(t, NewMux(&mockService{}), validBody)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", w.Code)
	}
}

func TestCancelAndMetricsEndpoints(t *testing.T) {
	svc := &mockService{metrics: map[string]types.RequestMetrics{
		"req-live": {TotalLatencyMs: 30, AvgPartitionLatencyMs: 15, NumPartitions: 2},
	}}
	h := NewMux(svc)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/requests/req-live/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	var m types.RequestMetrics
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil || m.NumPartitions != 2 || m.TotalLatencyMs != 30 {
		t.Fatalf("unexpected metrics %+v err=%v", m, err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/requests/nope/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown metrics status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/requests/req-live", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status=%d", w.Code)
	}
	var cr types.CancelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &cr); err != nil || !cr.Cancelled || cr.RequestID != "req-live" {
		t.Fatalf("unexpected cancel body %+v err=%v", cr, err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/requests/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown cancel status=%d", w.Code)
	}
	var er types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != http.StatusNotFound {
		t.Fatalf("unexpected error body %q", w.Body.String())
	}
	if len(svc.cancels) != 2 {
		t.Fatalf("cancels=%v", svc.cancels)
	}
}

func TestStatusAndNodesHandlers(t *testing.T) {
	svc := &mockService{
		status: types.StatusResponse{Executing: 1, MaxInflight: 8, Nodes: 2},
	}
	h := NewMux(svc)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	var st types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil || st.MaxInflight != 8 || st.Executing != 1 {
		t.Fatalf("unexpected status %+v err=%v", st, err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/nodes", nil))
	if !strings.Contains(w.Body.String(), `"nodes":[]`) {
		t.Fatalf("expected empty node list, got %s", w.Body.String())
	}
	svc.nodes = []types.NodeCapabilities{{NodeID: "glasses", Local: true}}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/nodes", nil))
	var nr types.NodesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &nr); err != nil || len(nr.Nodes) != 1 || nr.Nodes[0].NodeID != "glasses" {
		t.Fatalf("unexpected nodes %+v err=%v", nr, err)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := &mockService{ready: false}
	h := NewMux(svc)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz=%d %q", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz not ready=%d", w.Code)
	}
	svc.ready = true
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz ready=%d", w.Code)
	}
}

func TestSecurityHeaderAndRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestSwaggerMountMatchesBuild(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if !SwaggerEnabled && w.Code != http.StatusNotFound {
		t.Fatalf("swagger should not be served without the build tag, got %d", w.Code)
	}
	if SwaggerEnabled && w.Code != http.StatusOK {
		t.Fatalf("swagger UI status=%d", w.Code)
	}
}
