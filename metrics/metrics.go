package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AvailabilityChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_availability_checks_total",
			Help: "Total number of slot availability checks by outcome",
		},
		[]string{"studio", "result"},
	)

	BookingsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_bookings_created_total",
			Help: "Total number of bookings created",
		},
		[]string{"studio", "session_type", "source"},
	)

	BookingConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_booking_conflicts_total",
			Help: "Total number of booking attempts rejected because the slot was taken",
		},
		[]string{"studio", "reason"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_booking_transitions_total",
			Help: "Total number of booking status transitions",
		},
		[]string{"from", "to"},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_verifications_total",
			Help: "Total number of identity verification attempts by outcome",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordAvailabilityCheck(studio string, available bool) {
	result := "unavailable"
	if available {
		result = "available"
	}
	AvailabilityChecksTotal.WithLabelValues(studio, result).Inc()
}

func RecordBookingCreated(studio, sessionType, source string) {
	BookingsCreatedTotal.WithLabelValues(studio, sessionType, source).Inc()
}

// RecordBookingConflict counts a rejected create; reason is "overlap", "blocked" or "race".
func RecordBookingConflict(studio, reason string) {
	BookingConflictsTotal.WithLabelValues(studio, reason).Inc()
}

func RecordTransition(from, to string) {
	BookingTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordVerification(result string) {
	VerificationsTotal.WithLabelValues(result).Inc()
}
