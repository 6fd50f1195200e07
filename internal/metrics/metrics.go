package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the hub's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	connections     prometheus.Gauge
	activeRooms     prometheus.Gauge
	droppedEvents   prometheus.Counter
	storageFailures *prometheus.CounterVec
	inboundEvents   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wirecast",
			Name:      "connections",
			Help:      "Currently connected clients.",
		}),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wirecast",
			Name:      "active_room_workers",
			Help:      "Room workers currently running.",
		}),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wirecast",
			Name:      "dropped_events_total",
			Help:      "Outbound events dropped because a client buffer was full.",
		}),
		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirecast",
			Name:      "storage_failures_total",
			Help:      "Failed calls into the durable store, by operation.",
		}, []string{"op"}),
		inboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirecast",
			Name:      "inbound_events_total",
			Help:      "Inbound client events, by type.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.connections, m.activeRooms, m.droppedEvents, m.storageFailures, m.inboundEvents)
	}
	return m
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) RoomStarted() {
	if m != nil {
		m.activeRooms.Inc()
	}
}

func (m *Metrics) RoomStopped() {
	if m != nil {
		m.activeRooms.Dec()
	}
}

func (m *Metrics) EventDropped() {
	if m != nil {
		m.droppedEvents.Inc()
	}
}

func (m *Metrics) StorageFailure(op string) {
	if m != nil {
		m.storageFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) Inbound(kind string) {
	if m != nil {
		m.inboundEvents.WithLabelValues(kind).Inc()
	}
}
