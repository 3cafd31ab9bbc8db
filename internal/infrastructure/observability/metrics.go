package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RepositoryCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_calls_total",
			Help: "Total number of repository method calls",
		},
		[]string{"method", "status"},
	)

	RepositoryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_duration_seconds",
			Help:    "Duration of repository method calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// outcome is "ok" or an auth.Failure name
	TokenOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_operations_total",
			Help: "Token service operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	AuditEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revocation_audit_events_total",
			Help: "Revocation audit events consumed, by status",
		},
		[]string{"status"},
	)
)

// InitMetrics registers the collectors with reg. The router exposes them on /metrics.
func InitMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{RepositoryCalls, RepositoryDuration, TokenOperations, AuditEvents} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
