package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"sftmarket/core/events"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured market events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sftmarket",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of emitted market and token events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.emitted.WithLabelValues(normalized).Inc()
}

// MeterEmitter counts every event before forwarding it along the chain.
type MeterEmitter struct {
	next events.Emitter
}

// NewMeterEmitter wraps next with event counting. A nil next degrades to a
// no-op sink.
func NewMeterEmitter(next events.Emitter) *MeterEmitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &MeterEmitter{next: next}
}

func (m *MeterEmitter) Emit(evt events.Event) {
	if evt != nil {
		Events().RecordEvent(evt.EventType())
	}
	m.next.Emit(evt)
}
