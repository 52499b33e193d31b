package types

// InputKind tags the populated payload of an Input.
type InputKind string

const (
	InputText       InputKind = "text"
	InputTokens     InputKind = "tokens"
	InputImage      InputKind = "image"
	InputAudio      InputKind = "audio"
	InputMultimodal InputKind = "multimodal"
)

// Valid reports whether k is a known input kind.
func (k InputKind) Valid() bool {
	switch k {
	case InputText, InputTokens, InputImage, InputAudio, InputMultimodal:
		return true
	}
	return false
}

// Input is the request payload. Multimodal inputs may carry any subset of
// Text, Image and Audio.
type Input struct {
	// example: text
	Kind InputKind `json:"kind" example:"text"`
	// example: What am I looking at?
	Text   string    `json:"text,omitempty" example:"What am I looking at?"`
	Tokens []int32   `json:"tokens,omitempty"`
	Image  []byte    `json:"image,omitempty"`
	Audio  []float32 `json:"audio,omitempty"`
}

func TextInput(s string) Input { return Input{Kind: InputText, Text: s} }
func TokensInput(toks ...int32) Input { return Input{Kind: InputTokens, Tokens: toks} }
func ImageInput(b []byte) Input { return Input{Kind: InputImage, Image: b} }
func AudioInput(samples []float32) Input { return Input{Kind: InputAudio, Audio: samples} }

// MultimodalInput combines optional text, image and audio payloads.
func MultimodalInput(text string, image []byte, audio []float32) Input {
	return Input{Kind: InputMultimodal, Text: text, Image: image, Audio: audio}
}

// Defaults applied by Parameters.WithDefaults.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
	DefaultTopK        = 40
)

// Parameters controls generation.
type Parameters struct {
	// Maximum number of tokens to generate.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Stream the result as NDJSON lines (HTTP only).
	Stream bool `json:"stream,omitempty"`
	// Upper bound on end-to-end latency; 0 uses the server default.
	// example: 2000
	MaxLatencyMs int64 `json:"max_latency_ms,omitempty" example:"2000"`
	// Return the final hidden state as an embedding instead of text.
	Embed bool `json:"embed,omitempty"`
}

// WithDefaults returns p with zero values replaced by package defaults.
func (p Parameters) WithDefaults() Parameters {
	if p.MaxTokens == 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	if p.Temperature == 0 {
		p.Temperature = DefaultTemperature
	}
	if p.TopP == 0 {
		p.TopP = DefaultTopP
	}
	if p.TopK == 0 {
		p.TopK = DefaultTopK
	}
	return p
}

// InferenceRequest is one unit of work for the coordinator.
type InferenceRequest struct {
	// Optional; generated as req-<uuid> when empty.
	// example: req-2f1c0c7e-7d4b-4a8e-9a51-0b8f2f0d3c11
	RequestID string `json:"request_id,omitempty" example:"req-2f1c0c7e-7d4b-4a8e-9a51-0b8f2f0d3c11"`
	// example: llama-70b
	ModelName  string     `json:"model_name" example:"llama-70b"`
	Input      Input      `json:"input"`
	Parameters Parameters `json:"parameters"`
}

// OutputKind tags the populated payload of an Output.
type OutputKind string

const (
	OutputText      OutputKind = "text"
	OutputTokens    OutputKind = "tokens"
	OutputImage     OutputKind = "image"
	OutputEmbedding OutputKind = "embedding"
	OutputError     OutputKind = "error"
)

// Output is the result payload. Failures are reported as Kind=error.
type Output struct {
	// example: text
	Kind      OutputKind `json:"kind" example:"text"`
	Text      string     `json:"text,omitempty"`
	Tokens    []int32    `json:"tokens,omitempty"`
	Image     []byte     `json:"image,omitempty"`
	Embedding []float32  `json:"embedding,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func TextOutput(s string) Output { return Output{Kind: OutputText, Text: s} }
func EmbeddingOutput(v []float32) Output { return Output{Kind: OutputEmbedding, Embedding: v} }
func ErrorOutput(msg string) Output { return Output{Kind: OutputError, Error: msg} }

// IsError reports whether the output carries a failure.
func (o Output) IsError() bool { return o.Kind == OutputError }

// InferenceMetrics are derived by the coordinator; never caller-supplied.
type InferenceMetrics struct {
	// example: 212
	LatencyMs int64 `json:"latency_ms" example:"212"`
	// example: 235.8
	TokensPerSecond float64 `json:"tokens_per_second" example:"235.8"`
	// example: 4
	NodesUsed int `json:"nodes_used" example:"4"`
	// example: 15
	CoordinationOverheadMs float64 `json:"coordination_overhead_ms" example:"15"`
	// example: 39424
	MemoryUsedMB int64 `json:"memory_used_mb" example:"39424"`
}

// Outcome values reported on InferenceResponse.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeTimeout   = "timeout"
	OutcomeTooBusy   = "too_busy"
	OutcomeNoNode    = "no_node"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// InferenceResponse is always returned by the coordinator, even on failure.
type InferenceResponse struct {
	RequestID string `json:"request_id"`
	// How the request ended; anything but "completed" carries an error output.
	// example: completed
	Outcome string           `json:"outcome" example:"completed"`
	Output  Output           `json:"output"`
	Metrics InferenceMetrics `json:"metrics"`
}

// RequestMetrics is a live view of an executing request.
type RequestMetrics struct {
	// example: 40
	TotalLatencyMs int64 `json:"total_latency_ms" example:"40"`
	// example: 10
	AvgPartitionLatencyMs float64 `json:"avg_partition_latency_ms" example:"10"`
	// example: 4
	NumPartitions int `json:"num_partitions" example:"4"`
}

// InFlightRequest summarizes one registered request for /v1/status.
type InFlightRequest struct {
	RequestID   string `json:"request_id"`
	ModelName   string `json:"model_name"`
	State       string `json:"state"`
	StartedUnix int64  `json:"started_unix"`
	Partitions  int    `json:"partitions_done"`
}

// StatusResponse is returned by GET /v1/status.
type StatusResponse struct {
	InFlight []InFlightRequest `json:"in_flight"`
	// Requests currently holding an execution slot.
	// example: 2
	Executing int `json:"executing" example:"2"`
	// example: 64
	MaxInflight int `json:"max_inflight" example:"64"`
	// example: 3
	Nodes int `json:"nodes" example:"3"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
}

// NodesResponse wraps GET /v1/nodes.
type NodesResponse struct {
	Nodes []NodeCapabilities `json:"nodes"`
}

// CancelResponse is returned by DELETE /v1/requests/{id}.
type CancelResponse struct {
	RequestID string `json:"request_id"`
	Cancelled bool   `json:"cancelled"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// example: 400
	Code int `json:"code" example:"400"`
}
