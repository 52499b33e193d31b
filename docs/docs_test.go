package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var parsed struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	if parsed.Info.Title != "arinferd API" {
		t.Fatalf("title=%q", parsed.Info.Title)
	}
	for _, p := range []string{"/v1/infer", "/v1/requests/{id}", "/v1/requests/{id}/metrics", "/v1/status", "/v1/nodes"} {
		if _, ok := parsed.Paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
}

func TestSwaggerDocInferResponses(t *testing.T) {
	doc, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var parsed struct {
		Paths map[string]map[string]struct {
			Responses map[string]any `json:"responses"`
		} `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	got := parsed.Paths["/v1/infer"]["post"].Responses
	for _, code := range []string{"200", "400", "415", "429", "504"} {
		if _, ok := got[code]; !ok {
			t.Fatalf("missing %s response", code)
		}
	}
	// no_node is answered with 200
	if _, ok := got["503"]; ok {
		t.Fatalf("unexpected 503 response")
	}
}
