package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/api/v1/bookings", "201", 0.2)
	RecordHTTPRequest("POST", "/api/v1/bookings", "201", 0.1)
	RecordHTTPRequest("POST", "/api/v1/bookings", "409", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/bookings", "201")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/bookings", "409")))
}

func TestRecordAvailabilityCheck(t *testing.T) {
	AvailabilityChecksTotal.Reset()

	RecordAvailabilityCheck("Studio B", true)
	RecordAvailabilityCheck("Studio B", false)
	RecordAvailabilityCheck("Studio B", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(AvailabilityChecksTotal.WithLabelValues("Studio B", "available")))
	assert.Equal(t, float64(2), testutil.ToFloat64(AvailabilityChecksTotal.WithLabelValues("Studio B", "unavailable")))
}

func TestRecordBookingLifecycle(t *testing.T) {
	BookingsCreatedTotal.Reset()
	BookingConflictsTotal.Reset()
	BookingTransitionsTotal.Reset()

	RecordBookingCreated("Studio A", "karaoke", "customer")
	RecordBookingConflict("Studio A", "race")
	RecordTransition("pending", "confirmed")
	RecordTransition("pending", "confirmed")

	assert.Equal(t, float64(1), testutil.ToFloat64(BookingsCreatedTotal.WithLabelValues("Studio A", "karaoke", "customer")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BookingConflictsTotal.WithLabelValues("Studio A", "race")))
	assert.Equal(t, float64(2), testutil.ToFloat64(BookingTransitionsTotal.WithLabelValues("pending", "confirmed")))
}
