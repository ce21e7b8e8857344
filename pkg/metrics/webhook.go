package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records outcomes of payment event processing.
type WebhookMetrics struct {
	duration   *prometheus.HistogramVec
	applied    *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	rejected   *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_event_apply_duration_seconds",
		Help:    "Duration of payment event reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_applied_total",
		Help: "Payment events applied to the ledger.",
	}, []string{"path"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_duplicate_total",
		Help: "Payment events skipped as already processed.",
	}, []string{"path"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_rejected_total",
		Help: "Payment events rejected before any mutation.",
	}, []string{"path", "reason"})
	reg.MustRegister(duration, applied, duplicates, rejected)
	return &WebhookMetrics{
		duration:   duration,
		applied:    applied,
		duplicates: duplicates,
		rejected:   rejected,
	}
}

// ObserveDuration records the apply duration for the named path.
func (m *WebhookMetrics) ObserveDuration(path string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(path)).Observe(duration.Seconds())
}

// IncApplied increments the applied counter for the named path.
func (m *WebhookMetrics) IncApplied(path string) {
	if m == nil || m.applied == nil {
		return
	}
	m.applied.WithLabelValues(normalizeLabel(path)).Inc()
}

// IncDuplicate increments the duplicate counter for the named path.
func (m *WebhookMetrics) IncDuplicate(path string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(path)).Inc()
}

// IncRejected increments the rejected counter for the named path and reason.
func (m *WebhookMetrics) IncRejected(path, reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(path), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
