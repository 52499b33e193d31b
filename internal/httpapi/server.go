package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arinfer/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Infer(ctx context.Context, req types.InferenceRequest) types.InferenceResponse
	CancelRequest(id string) bool
	RequestMetrics(id string) (types.RequestMetrics, bool)
	Status() types.StatusResponse
	Nodes() []types.NodeCapabilities
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if c := corsMiddleware(); c != nil {
		r.Use(c)
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/infer", inferHandler(svc))
		r.Delete("/requests/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if !svc.CancelRequest(id) {
				writeJSONError(w, http.StatusNotFound, "unknown request id: "+id)
				return
			}
			writeJSON(w, http.StatusOK, types.CancelResponse{RequestID: id, Cancelled: true})
		})
		r.Get("/requests/{id}/metrics", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			m, ok := svc.RequestMetrics(id)
			if !ok {
				writeJSONError(w, http.StatusNotFound, "unknown request id: "+id)
				return
			}
			writeJSON(w, http.StatusOK, m)
		})
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Status())
		})
		r.Get("/nodes", func(w http.ResponseWriter, r *http.Request) {
			nodes := svc.Nodes()
			if nodes == nil {
				nodes = []types.NodeCapabilities{}
			}
			writeJSON(w, http.StatusOK, types.NodesResponse{Nodes: nodes})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func inferHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Content-Type check
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		// Limit body size (configurable, default 1MiB)
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.InferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		// Basic validation
		if strings.TrimSpace(req.ModelName) == "" {
			writeJSONError(w, http.StatusBadRequest, "model_name is required")
			return
		}
		if !req.Input.Kind.Valid() {
			writeJSONError(w, http.StatusBadRequest, "input.kind must be one of text, tokens, image, audio, multimodal")
			return
		}

		start := time.Now()
		lvl := requestLogLevel(r)
		if lvl >= LevelInfo {
			z := zlog.Info().Str("path", r.URL.Path).Str("model", req.ModelName).Bool("stream", req.Parameters.Stream)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("http_request_id", rid)
			}
			z.Msg("infer start")
		}

		// Join server base context with request context so shutdown cancels work too.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp := svc.Infer(joinedCtx, req)
		// If the client went away there is nobody to answer.
		if r.Context().Err() != nil {
			return
		}

		status := statusForOutcome(resp.Outcome)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("max_inflight")
		}
		var inferErr error
		if resp.Output.IsError() {
			inferErr = inferError(resp.Output.Error)
		}

		if req.Parameters.Stream {
			var writer io.Writer = w
			if lvl >= LevelDebug {
				writer = io.MultiWriter(w, &loggingLineWriter{requestID: resp.RequestID})
			}
			var flush func()
			if f, ok := w.(http.Flusher); ok {
				flush = f.Flush
			}
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(status)
			writeStream(writer, flush, resp)
		} else {
			writeJSON(w, status, resp)
		}
		logInferEnd(r, lvl, status, start, resp.RequestID, inferErr)
	}
}

type inferError string

func (e inferError) Error() string { return string(e) }

// streamChunk is one NDJSON line of a streamed response.
type streamChunk struct {
	RequestID string                   `json:"request_id"`
	Delta     string                   `json:"delta,omitempty"`
	Done      bool                     `json:"done,omitempty"`
	Response  *types.InferenceResponse `json:"response,omitempty"`
}

// writeStream emits decoded words one per line followed by a final line
// carrying the full response.
func writeStream(w io.Writer, flush func(), resp types.InferenceResponse) {
	enc := json.NewEncoder(w)
	if resp.Output.Kind == types.OutputText {
		for i, word := range strings.Fields(resp.Output.Text) {
			if i > 0 {
				word = " " + word
			}
			if err := enc.Encode(streamChunk{RequestID: resp.RequestID, Delta: word}); err != nil {
				return
			}
			if flush != nil {
				flush()
			}
		}
	}
	_ = enc.Encode(streamChunk{RequestID: resp.RequestID, Done: true, Response: &resp})
	if flush != nil {
		flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
