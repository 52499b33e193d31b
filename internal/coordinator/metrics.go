package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"

	"arinfer/pkg/types"
)

// Request outcomes used as the "outcome" label.
const (
	outcomeCompleted = types.OutcomeCompleted
	outcomeCancelled = types.OutcomeCancelled
	outcomeTimeout   = types.OutcomeTimeout
	outcomeTooBusy   = types.OutcomeTooBusy
	outcomeNoNode    = types.OutcomeNoNode
	outcomeDuplicate = types.OutcomeDuplicate
	outcomeError     = types.OutcomeError
)

// Strategy labels beyond the partitioning strategies.
const (
	strategySingleNode = "single_node"
	strategyNone       = "none"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arinfer",
			Subsystem: "coordinator",
			Name:      "requests_total",
			Help:      "Total inference requests by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arinfer",
			Subsystem: "coordinator",
			Name:      "request_duration_seconds",
			Help:      "End-to-end inference latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	partitionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arinfer",
			Subsystem: "coordinator",
			Name:      "partition_duration_seconds",
			Help:      "Partition execution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node"},
	)

	partitionRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arinfer",
			Subsystem: "coordinator",
			Name:      "partition_retries_total",
			Help:      "Partitions re-run on an alternate node",
		},
	)

	inflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "arinfer",
			Subsystem: "coordinator",
			Name:      "inflight_requests",
			Help:      "Requests holding an execution slot",
		},
	)

	cancellationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arinfer",
			Subsystem: "coordinator",
			Name:      "cancellations_total",
			Help:      "Successful CancelRequest calls",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, partitionDuration, partitionRetriesTotal, inflightRequests, cancellationsTotal)
}
