package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for slot resolution and admission.
type BookingMetrics struct {
	admissionsTotal  *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	slotLookupsTotal *prometheus.CounterVec
	resolveLatency   *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		admissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookly",
			Subsystem: "booking",
			Name:      "admissions_total",
			Help:      "Booking admission attempts by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookly",
			Subsystem: "booking",
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to"}),
		slotLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookly",
			Subsystem: "slots",
			Name:      "lookups_total",
			Help:      "Slot resolutions by source",
		}, []string{"source"}),
		resolveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookly",
			Subsystem: "slots",
			Name:      "resolve_latency_seconds",
			Help:      "Latency of slot resolution",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.admissionsTotal, m.transitionsTotal, m.slotLookupsTotal, m.resolveLatency)
	return m
}

func (m *BookingMetrics) ObserveAdmission(outcome string) {
	if m == nil {
		return
	}
	m.admissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

// ObserveSlotLookup records one resolution served from source ("cache" or "store").
func (m *BookingMetrics) ObserveSlotLookup(source string, seconds float64) {
	if m == nil {
		return
	}
	m.slotLookupsTotal.WithLabelValues(source).Inc()
	m.resolveLatency.WithLabelValues(source).Observe(seconds)
}
