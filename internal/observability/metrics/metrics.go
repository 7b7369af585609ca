package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for availability and booking flows.
type BookingMetrics struct {
	slotQueries     *prometheus.CounterVec
	bookings        *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	calendarLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinesio",
			Subsystem: "agenda",
			Name:      "slot_queries_total",
			Help:      "Total availability queries by outcome",
		}, []string{"status"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinesio",
			Subsystem: "agenda",
			Name:      "bookings_total",
			Help:      "Total booking transactions by outcome",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinesio",
			Subsystem: "agenda",
			Name:      "notifications_total",
			Help:      "Post-booking notification phases by outcome",
		}, []string{"status"}),
		calendarLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kinesio",
			Subsystem: "agenda",
			Name:      "calendar_latency_seconds",
			Help:      "Latency of calendar service calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotQueries, m.bookings, m.notifications, m.calendarLatency)
	return m
}

func (m *BookingMetrics) ObserveSlotQuery(status string) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveCalendarLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.calendarLatency.WithLabelValues(operation).Observe(seconds)
}
