// Package coordinator routes inference requests across partitioned models and
// tracks them while they run. It is structured into small files by concern:
//
//   - coordinator.go: core Coordinator type, constructor, simple getters.
//   - config.go: CoordinatorConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: lifecycle states and the collaborator interfaces (NodeSelector,
//     ModelPartitioner, NodeHealth, PartitionRunner).
//   - errors.go: error types and predicates (IsTimeout, IsCancelled, IsTooBusy, ...).
//   - registry.go: in-flight request registry and per-request partition results.
//   - admission.go: bounded concurrent execution with a queue wait limit.
//   - embed.go: deterministic initial hidden state from request input.
//   - runner.go: simulated partition runner.
//   - strategy.go: layer-wise, pipeline, tensor-parallel and hybrid execution
//     plus single-node fallback and one-shot retry on an alternate node.
//   - reduce.go / decode.go: element-wise mean reduction and text decoding.
//   - infer.go: Infer entry point, cancellation and per-request metrics.
//   - status.go: Status/Ready reporting helpers.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus collectors.
//
// External packages should use public methods only (New/NewWithConfig, Infer,
// CancelRequest, RequestMetrics, Status, Ready). Internal types are subject to change.
package coordinator
