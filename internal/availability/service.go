package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/kinesio-agenda/internal/observability/metrics"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

var availabilityTracer = otel.Tracer("kinesio.internal.availability")

// ErrCalendarRead means busy intervals could not be loaded. The day's
// availability is unknown and must not be reported as free.
var ErrCalendarRead = errors.New("availability: calendar read failed")

// BusyLister loads busy intervals intersecting [timeMin, timeMax).
type BusyLister interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]BusyInterval, error)
}

// DayPolicy decides which days accept bookings at all.
type DayPolicy struct {
	ClosedWeekdays  []time.Weekday
	RejectPastDates bool
}

// Closed reports whether no slots should be offered on day. now is
// compared by calendar date in day's location.
func (p DayPolicy) Closed(day, now time.Time) bool {
	for _, wd := range p.ClosedWeekdays {
		if day.Weekday() == wd {
			return true
		}
	}
	if p.RejectPastDates {
		y, m, d := now.In(day.Location()).Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
		dy, dm, dd := day.Date()
		if time.Date(dy, dm, dd, 0, 0, 0, 0, day.Location()).Before(today) {
			return true
		}
	}
	return false
}

// Service answers availability queries against the live calendar.
type Service struct {
	calc    *Calculator
	lister  BusyLister
	policy  DayPolicy
	timeout time.Duration
	now     func() time.Time
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithTimeout bounds each calendar read.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithMetrics records query outcomes and calendar read latency.
func WithMetrics(m *metrics.BookingMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the calculator to a busy-interval source.
func NewService(calc *Calculator, lister BusyLister, policy DayPolicy, logger *logging.Logger, opts ...ServiceOption) *Service {
	if calc == nil {
		panic("availability: calculator required")
	}
	if lister == nil {
		panic("availability: busy lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		calc:    calc,
		lister:  lister,
		policy:  policy,
		timeout: 5 * time.Second,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculator exposes the underlying calculator.
func (s *Service) Calculator() *Calculator { return s.calc }

// Policy exposes the day policy.
func (s *Service) Policy() DayPolicy { return s.policy }

// Query returns the free slots on day. A closed day yields an empty list
// without touching the calendar.
func (s *Service) Query(ctx context.Context, day time.Time) ([]Slot, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.query")
	defer span.End()
	span.SetAttributes(attribute.String("kinesio.day", day.Format(time.DateOnly)))

	now := s.now()
	if s.policy.Closed(day, now) {
		s.logger.Debug("availability: day closed by policy", "day", day.Format(time.DateOnly))
		s.metrics.ObserveSlotQuery("closed")
		return []Slot{}, nil
	}

	busy, err := s.Busy(ctx, day)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveSlotQuery("read_failed")
		return nil, err
	}

	slots := s.calc.FreeSlots(day, busy)
	if s.policy.RejectPastDates {
		slots = s.dropStarted(day, slots, now)
	}
	span.SetAttributes(attribute.Int("kinesio.free_slots", len(slots)), attribute.Int("kinesio.busy", len(busy)))
	s.metrics.ObserveSlotQuery("ok")
	return slots, nil
}

// Busy loads the busy intervals overlapping day's working window.
func (s *Service) Busy(ctx context.Context, day time.Time) ([]BusyInterval, error) {
	timeMin, timeMax := s.calc.DayBounds(day)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	started := time.Now()
	busy, err := s.lister.ListEvents(ctx, timeMin, timeMax)
	s.metrics.ObserveCalendarLatency("list", time.Since(started).Seconds())
	if err != nil {
		s.logger.Error("availability: calendar read failed", "error", err, "day", day.Format(time.DateOnly))
		return nil, fmt.Errorf("%w: %w", ErrCalendarRead, err)
	}
	return busy, nil
}

func (s *Service) dropStarted(day time.Time, slots []Slot, now time.Time) []Slot {
	out := slots[:0]
	for _, slot := range slots {
		start, _, err := s.calc.SlotAt(day, slot.Time)
		if err == nil && !start.After(now) {
			continue
		}
		out = append(out, slot)
	}
	return out
}
