package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Realtime relay
	ConnectedSessions prometheus.Gauge
	MessagesRelayed   prometheus.Counter
	DeliveryDropped   prometheus.Counter

	// Files and exports
	FilesUploaded    prometheus.Counter
	UploadsRejected  *prometheus.CounterVec
	ExportsGenerated *prometheus.CounterVec

	// Auth
	LoginAttempts *prometheus.CounterVec
}

// New creates all application metrics and registers them with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConnectedSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connected_sessions",
			Help:      "Current number of open realtime sessions",
		}),
		MessagesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "messages_relayed_total",
			Help:      "Total number of chat messages delivered to local channels",
		}),
		DeliveryDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "deliveries_dropped_total",
			Help:      "Total number of frames dropped because a session queue was full",
		}),

		FilesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "uploaded_total",
			Help:      "Total number of stored medical files",
		}),
		UploadsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "rejected_total",
			Help:      "Total number of rejected uploads",
		}, []string{"reason"}),
		ExportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "generated_total",
			Help:      "Total number of generated patient exports",
		}, []string{"format"}),

		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts",
		}, []string{"result"}),
	}
}

// NewNop returns metrics registered with a private registry.
func NewNop() *Metrics {
	return New("careconnect", prometheus.NewRegistry())
}
