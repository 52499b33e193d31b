package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"arinfer/pkg/types"
)

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	h := NewMux(&mockService{metrics: map[string]types.RequestMetrics{"a": {}}})
	counter := httpRequestsTotal.WithLabelValues("/v1/requests/{id}/metrics", http.MethodGet, "200")
	before := testutil.ToFloat64(counter)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/requests/a/metrics", nil))
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected route-pattern label, delta=%v", got)
	}
}

func TestMetricsEndpointExposesCollectors(t *testing.T) {
	h := NewMux(&mockService{})
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("arinfer_http_requests_total")) {
		t.Fatalf("expected arinfer_http_requests_total in metrics")
	}
}

func TestBackpressureCountedOn429(t *testing.T) {
	c := backpressureTotal.WithLabelValues("max_inflight")
	before := testutil.ToFloat64(c)
	svc := &mockService{resp: types.InferenceResponse{Outcome: types.OutcomeTooBusy, Output: types.ErrorOutput("busy")}}
	postInfer(t, NewMux(svc), validBody)
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Fatalf("backpressure delta=%v", got)
	}
	IncrementBackpressure("")
	if testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified")) < 1 {
		t.Fatalf("empty reason should count as unspecified")
	}
}

func TestItoa(t *testing.T) {
	for n, want := range map[int]string{0: "0", 7: "7", 200: "200", 499: "499"} {
		if got := itoa(n); got != want {
			t.Fatalf("itoa(%d)=%q", n, got)
		}
	}
}
