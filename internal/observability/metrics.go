package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the refinement pipeline and daemon.
type Metrics struct {
	registry       *prometheus.Registry
	RefineRequests *prometheus.CounterVec
	RefineDuration *prometheus.HistogramVec
	StageDuration  *prometheus.HistogramVec
	LLMRequests    *prometheus.CounterVec
	LLMTokens      *prometheus.CounterVec
	ActiveSession  *prometheus.GaugeVec
	TransportErrs  *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with pipeline collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promptify_refine_requests_total",
		Help: "Total refinement runs by outcome and error kind",
	}, []string{"outcome", "kind"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptify_refine_duration_seconds",
		Help:    "Refinement run duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	stages := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptify_stage_duration_seconds",
		Help:    "Per-stage duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage", "outcome"})

	llmReqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promptify_llm_requests_total",
		Help: "Completion requests by provider and outcome",
	}, []string{"provider", "outcome"})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promptify_llm_tokens_total",
		Help: "Tokens reported by backends, by provider and direction",
	}, []string{"provider", "direction"})

	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "promptify_transport_active_sessions",
		Help: "Active streaming sessions by transport",
	}, []string{"transport"})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promptify_transport_errors_total",
		Help: "Transport-level errors (handler/streaming) by transport and reason",
	}, []string{"transport", "reason"})

	reg.MustRegister(reqs, durs, stages, llmReqs, tokens, active, trErrors)

	return &Metrics{
		registry:       reg,
		RefineRequests: reqs,
		RefineDuration: durs,
		StageDuration:  stages,
		LLMRequests:    llmReqs,
		LLMTokens:      tokens,
		ActiveSession:  active,
		TransportErrs:  trErrors,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRefine records one pipeline run. kind is empty on success.
func (m *Metrics) RecordRefine(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeOf(kind == "")
	m.RefineRequests.WithLabelValues(outcome, orUnknown(kind, outcome == "ok")).Inc()
	m.RefineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordStage records how long one stage took.
func (m *Metrics) RecordStage(stage string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(orUnknown(stage, false), outcomeOf(ok)).Observe(duration.Seconds())
}

// RecordLLMRequest records one completion call and the tokens it reported.
func (m *Metrics) RecordLLMRequest(provider string, ok bool, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	provider = orUnknown(provider, false)
	m.LLMRequests.WithLabelValues(provider, outcomeOf(ok)).Inc()
	if promptTokens > 0 {
		m.LLMTokens.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokens.WithLabelValues(provider, "completion").Add(float64(completionTokens))
	}
}

// IncActiveSessions increments the active session gauge.
func (m *Metrics) IncActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Inc()
}

// DecActiveSessions decrements the active session gauge.
func (m *Metrics) DecActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Dec()
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	m.TransportErrs.WithLabelValues(orUnknown(transport, false), orUnknown(reason, false)).Inc()
}

func outcomeOf(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// orUnknown fills empty label values. On success the kind label is "none".
func orUnknown(v string, success bool) string {
	switch {
	case v != "":
		return v
	case success:
		return "none"
	default:
		return "unknown"
	}
}
