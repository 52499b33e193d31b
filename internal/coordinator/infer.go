package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arinfer/pkg/types"
)

// Infer runs req to completion and always returns a response: failures,
// timeouts and cancellations are reported as an Error output with whatever
// metrics were gathered.
func (c *Coordinator) Infer(ctx context.Context, req types.InferenceRequest) (resp types.InferenceResponse) {
	start := time.Now()
	req.Parameters = req.Parameters.WithDefaults()
	maxLatencyMs := req.Parameters.MaxLatencyMs
	if maxLatencyMs <= 0 {
		maxLatencyMs = c.defaultMaxLatency.Milliseconds()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	entry, err := c.registry.add(req, cancel)
	if err != nil {
		resp.RequestID = req.RequestID
		resp.Outcome = outcomeOf(err)
		resp.Output = types.ErrorOutput(err.Error())
		requestsTotal.WithLabelValues(strategyNone, resp.Outcome).Inc()
		return resp
	}
	resp.RequestID = entry.id
	defer c.cleanup(entry)

	execCtx := ctx
	if maxLatencyMs > 0 {
		var cancelTimeout context.CancelFunc
		execCtx, cancelTimeout = context.WithTimeout(ctx, time.Duration(maxLatencyMs)*time.Millisecond)
		defer cancelTimeout()
	}

	x := &execution{entry: entry}
	strategy := strategySingleNode
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Str("request_id", entry.id).Interface("panic", r).Msg("infer panic")
			resp.Outcome = outcomeError
			resp.Output = types.ErrorOutput(fmt.Sprintf("internal error: %v", r))
			resp.Metrics = c.finishMetrics(x, resp.Output, start)
			c.finish(strategy, outcomeError, start)
		}
	}()

	c.log.Info().Str("request_id", entry.id).Str("model", req.ModelName).Str("input", string(req.Input.Kind)).Msg("infer start")
	c.publish(EventInferStart, entry.id, map[string]any{"model": req.ModelName})

	release, err := c.beginExecution(execCtx, entry.id)
	if err == nil {
		defer release()
		c.registry.setState(entry, StateRouting)
		var out types.Output
		out, strategy, err = c.route(execCtx, x, req, maxLatencyMs)
		resp.Output = out
	}

	if err != nil {
		err = c.classify(ctx, execCtx, entry.id, maxLatencyMs, err)
		resp.Output = types.ErrorOutput(err.Error())
	}
	resp.Metrics = c.finishMetrics(x, resp.Output, start)

	outcome := outcomeOf(err)
	resp.Outcome = outcome
	switch outcome {
	case outcomeCompleted:
		c.registry.setState(entry, StateCompleted)
		c.log.Info().Str("request_id", entry.id).Str("strategy", strategy).Int64("latency_ms", resp.Metrics.LatencyMs).Int("nodes_used", resp.Metrics.NodesUsed).Msg("infer done")
		c.publish(EventInferDone, entry.id, map[string]any{"strategy": strategy, "latency_ms": resp.Metrics.LatencyMs})
	case outcomeCancelled:
		c.registry.setState(entry, StateCancelled)
		c.log.Info().Str("request_id", entry.id).Msg("infer cancelled")
		c.publish(EventInferCancelled, entry.id, nil)
	default:
		c.registry.setState(entry, StateErrored)
		c.log.Warn().Str("request_id", entry.id).Str("strategy", strategy).Err(err).Msg("infer failed")
		c.publish(EventInferError, entry.id, map[string]any{"error": err.Error(), "outcome": outcome})
	}
	c.finish(strategy, outcome, start)
	return resp
}

// route picks the execution path for req and runs it.
func (c *Coordinator) route(ctx context.Context, x *execution, req types.InferenceRequest, maxLatencyMs int64) (types.Output, string, error) {
	var (
		model       types.PartitionedModel
		partitioned bool
	)
	if c.partitioner != nil {
		model, partitioned = c.partitioner.GetPartitionedModel(req.ModelName)
	}
	c.registry.setState(x.entry, StateExecuting)
	if !partitioned {
		out, err := c.executeFallback(ctx, x, req, maxLatencyMs)
		return out, strategySingleNode, err
	}

	x.model = model
	strategy := string(model.Strategy)
	c.publish(EventRoute, x.entry.id, map[string]any{"strategy": strategy, "partitions": len(model.Partitions)})
	hidden := InitialHiddenState(req.Input, c.embeddingWidth)
	hidden, err := c.executePartitioned(ctx, x, hidden)
	if err != nil {
		return types.Output{}, strategy, err
	}
	return c.finalOutput(hidden, req.Parameters), strategy, nil
}

// classify maps context errors onto cancellation and timeout errors.
// parent is the caller/cancel context, exec carries the latency bound.
func (c *Coordinator) classify(parent, exec context.Context, id string, maxLatencyMs int64, err error) error {
	switch {
	case parent.Err() != nil:
		return cancelledError{id: id}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(exec.Err(), context.DeadlineExceeded):
		return timeoutError{id: id, limitMs: maxLatencyMs}
	case errors.Is(err, context.Canceled):
		return cancelledError{id: id}
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeCompleted
	case IsCancelled(err):
		return outcomeCancelled
	case IsTimeout(err):
		return outcomeTimeout
	case IsTooBusy(err):
		return outcomeTooBusy
	case IsNodeUnavailable(err):
		return outcomeNoNode
	case IsDuplicateRequest(err):
		return outcomeDuplicate
	}
	return outcomeError
}

func (c *Coordinator) finishMetrics(x *execution, out types.Output, start time.Time) types.InferenceMetrics {
	m := x.metrics()
	m.LatencyMs = time.Since(start).Milliseconds()
	m.TokensPerSecond = TokensPerSecond(outputTokens(out), m.LatencyMs)
	return m
}

func (c *Coordinator) finish(strategy, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(strategy, outcome).Inc()
	requestDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}

func (c *Coordinator) cleanup(entry *requestEntry) {
	c.registry.setState(entry, StateCleanedUp)
	c.registry.remove(entry)
}

// CancelRequest cancels an in-flight request. Its partition runners observe
// the cancellation and the request completes with a cancellation error.
// Returns false for unknown or already finished ids.
func (c *Coordinator) CancelRequest(id string) bool {
	if !c.registry.Cancel(id) {
		return false
	}
	cancellationsTotal.Inc()
	c.log.Info().Str("request_id", id).Msg("cancel requested")
	return true
}

// RequestMetrics returns live partition metrics for an in-flight request.
func (c *Coordinator) RequestMetrics(id string) (types.RequestMetrics, bool) {
	return c.registry.Metrics(id)
}
