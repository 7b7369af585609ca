package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveSlotQuery("ok")
	m.ObserveSlotQuery("ok")
	m.ObserveBooking("succeeded")
	m.ObserveNotification("failed")
	m.ObserveCalendarLatency("insert", 0.2)

	if got := testutil.ToFloat64(m.slotQueries.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 slot queries, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookings.WithLabelValues("succeeded")); got != 1 {
		t.Fatalf("expected 1 booking, got %v", got)
	}
	if got := testutil.ToFloat64(m.notifications.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected 1 failed notification, got %v", got)
	}
	if got := testutil.CollectAndCount(m.calendarLatency); got != 1 {
		t.Fatalf("expected 1 latency series, got %d", got)
	}
}

func TestBookingMetricsDefaultRegistry(t *testing.T) {
	m := NewBookingMetrics(nil)
	m.ObserveBooking("invalid")
	prometheus.DefaultRegisterer.Unregister(m.slotQueries)
	prometheus.DefaultRegisterer.Unregister(m.bookings)
	prometheus.DefaultRegisterer.Unregister(m.notifications)
	prometheus.DefaultRegisterer.Unregister(m.calendarLatency)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveSlotQuery("ok")
	m.ObserveBooking("succeeded")
	m.ObserveNotification("sent")
	m.ObserveCalendarLatency("list", 0.1)
}
