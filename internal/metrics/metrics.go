package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "clinic_notify",
		Subsystem: "realtime",
		Name:      "connections_open",
		Help:      "Live change-stream connections held by the subscription manager.",
	})

	ConnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinic_notify",
		Subsystem: "realtime",
		Name:      "connect_attempts_total",
		Help:      "Change-stream connection attempts by result.",
	}, []string{"result"})

	Listeners = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "clinic_notify",
		Subsystem: "realtime",
		Name:      "listeners",
		Help:      "Listeners attached to the active connection.",
	})

	EventsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinic_notify",
		Subsystem: "dispatch",
		Name:      "events_total",
		Help:      "Change events seen by the router, by table, type and outcome.",
	}, []string{"table", "type", "outcome"})

	ToastsShown = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clinic_notify",
		Subsystem: "sse",
		Name:      "toasts_total",
		Help:      "Toasts broadcast to clients, by style.",
	}, []string{"style"})

	ConsumersAttached = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "clinic_notify",
		Subsystem: "notify",
		Name:      "consumers_attached",
		Help:      "Notification consumers currently attached.",
	})

	ChangesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clinic_notify",
		Subsystem: "notify",
		Name:      "changes_dropped_total",
		Help:      "Feed changes not delivered because a consumer was not reading.",
	})
)
