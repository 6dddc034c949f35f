package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymgate_admissions_total",
			Help: "Check-in admission decisions by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	CodesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymgate_attendance_codes_issued_total",
			Help: "Total number of attendance codes issued",
		},
	)

	CodesSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymgate_attendance_codes_swept_total",
			Help: "Expired or consumed attendance codes removed by the sweeper",
		},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymgate_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	BookingCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymgate_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	WaitlistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymgate_waitlist_operations_total",
			Help: "Waitlist joins and removals by outcome",
		},
		[]string{"operation", "outcome"},
	)

	PromotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymgate_waitlist_promotions_total",
			Help: "Waitlisted accounts promoted into a booking",
		},
	)

	PromotionsDiscardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymgate_waitlist_promotions_discarded_total",
			Help: "Waitlist heads dequeued but not booked",
		},
	)

	InvariantViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymgate_invariant_violations_total",
			Help: "Runtime invariant violations; any increase indicates an atomicity bug",
		},
		[]string{"invariant"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymgate_events_published_total",
			Help: "Domain events pushed to the event queue",
		},
		[]string{"type", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordAdmission(method, outcome string) {
	AdmissionsTotal.WithLabelValues(method, outcome).Inc()
}

func RecordCodeIssued() {
	CodesIssuedTotal.Inc()
}

func RecordCodesSwept(n int64) {
	CodesSweptTotal.Add(float64(n))
}

func RecordBooking(outcome string) {
	BookingsTotal.WithLabelValues(outcome).Inc()
}

func RecordBookingCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordWaitlist(operation, outcome string) {
	WaitlistTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordPromotion() {
	PromotionsTotal.Inc()
}

func RecordPromotionDiscarded() {
	PromotionsDiscardedTotal.Inc()
}

func RecordInvariantViolation(invariant string) {
	InvariantViolationsTotal.WithLabelValues(invariant).Inc()
}

func RecordEvent(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

// NewEventQueueGauge reports the pending event queue length read by fn.
// The caller registers it.
func NewEventQueueGauge(fn func() float64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gymgate_event_queue_length",
			Help: "Domain events waiting in the Redis queue",
		},
		fn,
	)
}
