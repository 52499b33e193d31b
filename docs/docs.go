// Package docs registers the OpenAPI document for arinferd with swag. It is
// maintained by hand in the layout swag init produces; keep it in step with
// internal/httpapi routes and pkg/types.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "arinfer maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/infer": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json", "application/x-ndjson"],
                "tags": ["inference"],
                "summary": "Run one inference request",
                "parameters": [
                    {
                        "description": "Inference request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.InferenceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK (includes no_node: the output carries the error)", "schema": {"$ref": "#/definitions/types.InferenceResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.InferenceResponse"}},
                    "504": {"description": "Latency bound exceeded", "schema": {"$ref": "#/definitions/types.InferenceResponse"}}
                }
            }
        },
        "/v1/requests/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["inference"],
                "summary": "Cancel an in-flight request",
                "parameters": [{"type": "string", "description": "Request id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CancelResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/requests/{id}/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["inference"],
                "summary": "Live partition metrics of an in-flight request",
                "parameters": [{"type": "string", "description": "Request id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.RequestMetrics"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Coordinator status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/v1/nodes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Known compute nodes",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.NodesResponse"}}}
            }
        }
    },
    "definitions": {
        "types.Input": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["text", "tokens", "image", "audio", "multimodal"], "example": "text"},
                "text": {"type": "string", "example": "What am I looking at?"},
                "tokens": {"type": "array", "items": {"type": "integer"}},
                "image": {"type": "string", "format": "byte"},
                "audio": {"type": "array", "items": {"type": "number"}}
            }
        },
        "types.Parameters": {
            "type": "object",
            "properties": {
                "max_tokens": {"type": "integer", "example": 128},
                "temperature": {"type": "number", "example": 0.7},
                "top_p": {"type": "number", "example": 0.9},
                "top_k": {"type": "integer", "example": 40},
                "stream": {"type": "boolean"},
                "max_latency_ms": {"type": "integer", "example": 2000},
                "embed": {"type": "boolean"}
            }
        },
        "types.InferenceRequest": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "req-2f1c0c7e-7d4b-4a8e-9a51-0b8f2f0d3c11"},
                "model_name": {"type": "string", "example": "llama-70b"},
                "input": {"$ref": "#/definitions/types.Input"},
                "parameters": {"$ref": "#/definitions/types.Parameters"}
            }
        },
        "types.Output": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["text", "tokens", "image", "embedding", "error"], "example": "text"},
                "text": {"type": "string"},
                "tokens": {"type": "array", "items": {"type": "integer"}},
                "image": {"type": "string", "format": "byte"},
                "embedding": {"type": "array", "items": {"type": "number"}},
                "error": {"type": "string"}
            }
        },
        "types.InferenceMetrics": {
            "type": "object",
            "properties": {
                "latency_ms": {"type": "integer", "example": 212},
                "tokens_per_second": {"type": "number", "example": 235.8},
                "nodes_used": {"type": "integer", "example": 4},
                "coordination_overhead_ms": {"type": "number", "example": 15},
                "memory_used_mb": {"type": "integer", "example": 39424}
            }
        },
        "types.InferenceResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "outcome": {"type": "string", "example": "completed"},
                "output": {"$ref": "#/definitions/types.Output"},
                "metrics": {"$ref": "#/definitions/types.InferenceMetrics"}
            }
        },
        "types.RequestMetrics": {
            "type": "object",
            "properties": {
                "total_latency_ms": {"type": "integer", "example": 40},
                "avg_partition_latency_ms": {"type": "number", "example": 10},
                "num_partitions": {"type": "integer", "example": 4}
            }
        },
        "types.InFlightRequest": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "model_name": {"type": "string"},
                "state": {"type": "string"},
                "started_unix": {"type": "integer"},
                "partitions_done": {"type": "integer"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "in_flight": {"type": "array", "items": {"$ref": "#/definitions/types.InFlightRequest"}},
                "executing": {"type": "integer", "example": 2},
                "max_inflight": {"type": "integer", "example": 64},
                "nodes": {"type": "integer", "example": 3},
                "uptime_seconds": {"type": "integer", "example": 3600}
            }
        },
        "types.NodeCapabilities": {
            "type": "object",
            "properties": {
                "node_id": {"type": "string", "example": "phone-0"},
                "gpu": {"type": "boolean"},
                "ram_mb": {"type": "integer", "example": 12288},
                "bandwidth_mbps": {"type": "integer", "example": 400},
                "latency_ms": {"type": "integer", "example": 8},
                "models": {"type": "array", "items": {"type": "string"}},
                "local": {"type": "boolean"},
                "status": {"type": "string"},
                "last_seen": {"type": "string"}
            }
        },
        "types.NodesResponse": {
            "type": "object",
            "properties": {
                "nodes": {"type": "array", "items": {"$ref": "#/definitions/types.NodeCapabilities"}}
            }
        },
        "types.CancelResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "cancelled": {"type": "boolean"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "arinferd API",
	Description:      "Distributed inference coordinator for AR glasses and nearby compute nodes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
