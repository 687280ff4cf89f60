package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blood_drive"

var (
	eventOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_operations_total",
			Help:      "Lifecycle operations on events by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: ok | <error code>
	)

	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Roster transitions by kind",
		},
		[]string{"transition"}, // registered, cancelled, attended, cancelled_by_event
	)

	statusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Derived status changes persisted on read or write",
		},
		[]string{"from", "to"},
	)

	outboxPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_total",
			Help:      "Outbox relay publish attempts by result",
		},
		[]string{"result"}, // sent, retry, dead
	)

	statsCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_stats_cache_lookups_total",
			Help:      "Profile stats cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	dependencyHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dependency_health",
			Help:      "Health status of dependencies (1 = healthy, 0 = unhealthy)",
		},
		[]string{"dependency"},
	)
)

// RecordEventOperation counts a lifecycle operation; outcome is "ok" or an error code.
func RecordEventOperation(operation, outcome string) {
	if outcome == "" {
		outcome = "internal"
	}
	eventOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordRegistration(transition string, n int) {
	if n <= 0 {
		return
	}
	registrationsTotal.WithLabelValues(transition).Add(float64(n))
}

func RecordStatusTransition(from, to string) {
	statusTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordOutboxPublish(result string) {
	outboxPublishTotal.WithLabelValues(result).Inc()
}

func RecordStatsCacheLookup(result string) {
	statsCacheLookupsTotal.WithLabelValues(result).Inc()
}

// SetDependencyHealth sets the health status of a dependency
func SetDependencyHealth(dependency string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	dependencyHealth.WithLabelValues(dependency).Set(value)
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
