package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_Disabled(t *testing.T) {
	SetCORSOptions(false, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://companion.example")
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected CORS header %q", got)
	}
}

func TestCORS_Enabled(t *testing.T) {
	SetCORSOptions(true, []string{"https://companion.example"}, nil, nil)
	t.Cleanup(func() { SetCORSOptions(false, nil, nil, nil) })

	req := httptest.NewRequest(http.MethodOptions, "/v1/infer", nil)
	req.Header.Set("Origin", "https://companion.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://companion.example" {
		t.Fatalf("allow-origin=%q", got)
	}
}
