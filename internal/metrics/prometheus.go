package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Lifecycle metrics
	LifecycleOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "org_lifecycle_operations_total",
			Help: "Total number of organization lifecycle operations",
		},
		[]string{"operation", "status"}, // status: success, failed
	)

	LifecycleOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "org_lifecycle_operation_duration_seconds",
			Help:    "Duration of organization lifecycle operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ActiveOrganizations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "org_active_organizations",
			Help: "Current number of registered organizations",
		},
	)

	// Storage metrics
	RecordsMigratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "org_records_migrated_total",
			Help: "Total number of records copied between storage units during renames",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveLifecycleOperation records the outcome and duration of a lifecycle operation.
func ObserveLifecycleOperation(operation, status string, seconds float64) {
	LifecycleOperationsTotal.WithLabelValues(operation, status).Inc()
	LifecycleOperationDuration.WithLabelValues(operation).Observe(seconds)
}

// IncrementActiveOrganizations increments the active organizations gauge
func IncrementActiveOrganizations() {
	ActiveOrganizations.Inc()
}

// DecrementActiveOrganizations decrements the active organizations gauge
func DecrementActiveOrganizations() {
	ActiveOrganizations.Dec()
}

// AddRecordsMigrated counts records copied during a rename migration.
func AddRecordsMigrated(count float64) {
	RecordsMigratedTotal.Add(count)
}

// IncrementAPIRequests increments API request counter
func IncrementAPIRequests(method, endpoint, statusCode string) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
}

// RecordAPIRequestDuration records API request duration
func RecordAPIRequestDuration(method, endpoint string, duration float64) {
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}
