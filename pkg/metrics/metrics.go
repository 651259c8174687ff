// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studysphere"

// Plan generation outcomes.
const (
	PlanOutcomeSuccess          = "success"
	PlanOutcomeNoMaterial       = "no_material"
	PlanOutcomeModelUnavailable = "model_unavailable"
	PlanOutcomeMalformed        = "malformed_response"
	PlanOutcomeStoreFailure     = "store_failure"
)

// Metrics holds every collector on a private registry so tests can build
// independent instances.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	llmRequests  *prometheus.CounterVec

	planGenerations  *prometheus.CounterVec
	planTasksCreated prometheus.Counter
	planItemsDropped prometheus.Counter

	mcpToolCalls    *prometheus.CounterVec
	mcpToolDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Generative model calls by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		planGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_generations_total",
			Help:      "Study plan generations by outcome.",
		}, []string{"outcome"}),
		planTasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_tasks_created_total",
			Help:      "Tasks inserted by study plan generation.",
		}),
		planItemsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_items_dropped_total",
			Help:      "Model-proposed plan items rejected by validation.",
		}),
		mcpToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mcp_tool_calls_total",
			Help:      "MCP tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		mcpToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mcp_tool_duration_seconds",
			Help:      "MCP tool call latency by tool.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.llmRequests,
		m.planGenerations,
		m.planTasksCreated,
		m.planItemsDropped,
		m.mcpToolCalls,
		m.mcpToolDuration,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed request. route is the matched
// ServeMux pattern, never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordLLMRequest implements llm.RequestRecorder.
func (m *Metrics) RecordLLMRequest(provider, operation, outcome string) {
	m.llmRequests.WithLabelValues(provider, operation, outcome).Inc()
}

// RecordPlanGeneration counts one plan pipeline run.
func (m *Metrics) RecordPlanGeneration(outcome string, created, dropped int) {
	m.planGenerations.WithLabelValues(outcome).Inc()
	if created > 0 {
		m.planTasksCreated.Add(float64(created))
	}
	if dropped > 0 {
		m.planItemsDropped.Add(float64(dropped))
	}
}

// RecordMCPToolCall counts one MCP tool invocation.
func (m *Metrics) RecordMCPToolCall(tool, outcome string, elapsed time.Duration) {
	m.mcpToolCalls.WithLabelValues(tool, outcome).Inc()
	m.mcpToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}
