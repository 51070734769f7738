package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking outcomes used as label values.
const (
	OutcomeBooked      = "booked"
	OutcomeConflict    = "conflict"
	OutcomeUnavailable = "unavailable"
	OutcomeNoDoctor    = "no_doctor"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

// BookingMetrics exposes counters/histograms for booking flows.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	slotConflictsTotal *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	matchLatency       *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Total booking attempts by mode and outcome",
		}, []string{"mode", "outcome"}),
		slotConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Inserts or reschedules rejected by the booked-slot unique index",
		}, []string{"operation"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointment",
			Name:      "transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to"}),
		matchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "matcher",
			Name:      "latency_seconds",
			Help:      "Latency of free-doctor matching",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotConflictsTotal, m.transitionsTotal, m.matchLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(mode, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(mode, outcome).Inc()
}

func (m *BookingMetrics) ObserveSlotConflict(operation string) {
	if m == nil {
		return
	}
	m.slotConflictsTotal.WithLabelValues(operation).Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveMatch(found bool, seconds float64) {
	if m == nil {
		return
	}
	result := "empty"
	if found {
		result = "found"
	}
	m.matchLatency.WithLabelValues(result).Observe(seconds)
}
