// Package metrics exposes Prometheus instrumentation for the alert lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DetectionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_detections_recorded_total",
		Help: "Detections recorded by type",
	}, []string{"type"})

	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_alerts_created_total",
		Help: "Alerts created by level",
	}, []string{"level"})

	AdminDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_admin_decisions_total",
		Help: "Admin decisions applied, excluding idempotent repeats",
	}, []string{"decision"})

	FirefighterTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_firefighter_transitions_total",
		Help: "First-time firefighter status transitions",
	}, []string{"status"})

	NotificationsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_notifications_dispatched_total",
		Help: "Notifications fanned out to stations",
	})

	DispatchDistanceKm = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "firewatch_dispatch_distance_km",
		Help:    "Distance from a detection to each selected station",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250m .. 128km
	})

	ResponseMinutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "firewatch_response_minutes",
		Help:    "Minutes from notification to first responding status",
		Buckets: prometheus.LinearBuckets(1, 2, 15),
	})

	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firewatch_active_alerts",
		Help: "Active alerts seen by the last dashboard snapshot",
	})
)

func RecordDetection(detectionType string) {
	DetectionsRecorded.WithLabelValues(detectionType).Inc()
}

func RecordAlertCreated(level string) {
	AlertsCreated.WithLabelValues(level).Inc()
}

func RecordDecision(decision string) {
	AdminDecisions.WithLabelValues(decision).Inc()
}

func RecordFirefighterTransition(status string) {
	FirefighterTransitions.WithLabelValues(status).Inc()
}

func RecordDispatch(distancesKm []float64) {
	NotificationsDispatched.Inc()
	for _, d := range distancesKm {
		DispatchDistanceKm.Observe(d)
	}
}

func RecordResponse(minutes float64) {
	ResponseMinutes.Observe(minutes)
}
