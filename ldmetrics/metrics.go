// Package ldmetrics exposes the event pipeline's internal counters as Prometheus
// collectors, in addition to (not instead of) the periodic diagnostic JSON event. A nil
// *Registry is valid and makes every method a no-op, so embedding an event processor
// never requires a Prometheus registry.
package ldmetrics

import "github.com/prometheus/client_golang/prometheus"

// Registry owns the collectors for one event processor instance.
type Registry struct {
	droppedEvents      *prometheus.CounterVec
	deduplicatedUsers  prometheus.Counter
	flushes            *prometheus.CounterVec
	inboxDepth         prometheus.Gauge
}

// FlushResult labels a completed flush attempt.
type FlushResult string

const (
	FlushSuccess  FlushResult = "success"
	FlushFailed   FlushResult = "failed"
	FlushShutdown FlushResult = "shutdown"
)

// DropReason labels why an event was discarded before delivery.
type DropReason string

const (
	DropQueueFull  DropReason = "queue_full"
	DropBufferFull DropReason = "buffer_full"
)

// NewRegistry creates and registers a fresh set of collectors with reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a dedicated
// prometheus.NewRegistry() in tests to avoid collisions between instances.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ldevents_dropped_events_total",
			Help: "Events discarded before delivery, by reason.",
		}, []string{"reason"}),
		deduplicatedUsers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ldevents_deduplicated_users_total",
			Help: "Inline user payloads suppressed because the user was already seen this window.",
		}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ldevents_flush_total",
			Help: "Completed flush attempts, by outcome.",
		}, []string{"result"}),
		inboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ldevents_inbox_depth",
			Help: "Best-effort sample of the ingress queue's current length.",
		}),
	}
	reg.MustRegister(m.droppedEvents, m.deduplicatedUsers, m.flushes, m.inboxDepth)
	return m
}

func (m *Registry) IncDropped(reason DropReason) {
	if m == nil {
		return
	}
	m.droppedEvents.WithLabelValues(string(reason)).Inc()
}

func (m *Registry) IncDeduplicatedUser() {
	if m == nil {
		return
	}
	m.deduplicatedUsers.Inc()
}

func (m *Registry) IncFlush(result FlushResult) {
	if m == nil {
		return
	}
	m.flushes.WithLabelValues(string(result)).Inc()
}

func (m *Registry) SetInboxDepth(n int) {
	if m == nil {
		return
	}
	m.inboxDepth.Set(float64(n))
}
