// Package metrics exposes the orchestrator's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Invocation outcomes.
const (
	OutcomeAnswered   = "answered"
	OutcomeSuperseded = "superseded"
	OutcomeExhausted  = "exhausted"
	OutcomeFailed     = "failed"
)

var (
	// Invocations counts finished orchestrator invocations by outcome.
	Invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentd",
		Name:      "invocations_total",
		Help:      "Orchestrator invocations by outcome.",
	}, []string{"outcome"})

	// ToolExecutions counts tool calls by tool name and result.
	ToolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentd",
		Name:      "tool_executions_total",
		Help:      "Tool executions by tool and status.",
	}, []string{"tool", "status"})

	// CompletionLatency tracks wall time of completion provider calls.
	CompletionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agentd",
		Name:      "completion_seconds",
		Help:      "Latency of completion provider calls.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
