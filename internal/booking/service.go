package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/kinesio-agenda/internal/availability"
	"github.com/wolfman30/kinesio-agenda/internal/observability/metrics"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

var bookingTracer = otel.Tracer("kinesio.internal.booking")

// CalendarWriter persists appointments to the external calendar.
type CalendarWriter interface {
	InsertEvent(ctx context.Context, event Event) (string, error)
}

// Notifier delivers booking notifications. Implementations report failures
// in the outcome instead of returning them.
type Notifier interface {
	NotifyBooking(ctx context.Context, conf Confirmation) NotifyOutcome
}

// State is a step of a single booking transaction.
type State string

const (
	StateValidating State = "validating"
	StateWriting    State = "writing"
	StateNotifying  State = "notifying"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Service orchestrates booking transactions.
type Service struct {
	calc          *availability.Calculator
	writer        CalendarWriter
	notifier      Notifier
	locker        SlotLocker
	busy          availability.BusyLister
	policy        *availability.DayPolicy
	writeTimeout  time.Duration
	notifyTimeout time.Duration
	metrics       *metrics.BookingMetrics
	now           func() time.Time
	logger        *logging.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier sets the post-commit notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithGuard enables the slot guard: the slot is locked for the duration of
// the write and, when busy is non-nil, re-checked against the calendar first.
func WithGuard(locker SlotLocker, busy availability.BusyLister) Option {
	return func(s *Service) {
		if locker == nil {
			locker = NoopSlotLocker{}
		}
		s.locker = locker
		s.busy = busy
	}
}

// WithDayPolicy rejects requests for days the policy closes.
func WithDayPolicy(p availability.DayPolicy) Option {
	return func(s *Service) { s.policy = &p }
}

// WithTimeouts bounds the calendar write and the notification phase.
func WithTimeouts(write, notify time.Duration) Option {
	return func(s *Service) {
		if write > 0 {
			s.writeTimeout = write
		}
		if notify > 0 {
			s.notifyTimeout = notify
		}
	}
}

// WithMetrics records transaction outcomes.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used by the day policy.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a booking service.
func NewService(calc *availability.Calculator, writer CalendarWriter, logger *logging.Logger, opts ...Option) *Service {
	if calc == nil {
		panic("booking: calculator required")
	}
	if writer == nil {
		panic("booking: calendar writer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		calc:          calc,
		writer:        writer,
		writeTimeout:  5 * time.Second,
		notifyTimeout: 5 * time.Second,
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates req, writes the appointment and then notifies. The
// returned error is non-nil only when nothing was written; notification
// problems are reported in Confirmation.Notification.
func (s *Service) Submit(ctx context.Context, req Request) (*Confirmation, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.submit")
	defer span.End()

	req = req.normalize()
	log := s.logger.With("date", req.Date, "time", req.Time)
	s.enter(log, StateValidating)

	start, end, err := s.resolve(req)
	if err != nil {
		s.enter(log, StateFailed, "error", err)
		s.metrics.ObserveBooking("invalid")
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("kinesio.slot_start", start.Format(time.RFC3339)))

	release := func(context.Context) {}
	if s.locker != nil {
		release, err = s.guard(ctx, log, start, end)
		if err != nil {
			s.enter(log, StateFailed, "error", err)
			if errors.Is(err, ErrSlotTaken) {
				s.metrics.ObserveBooking("slot_taken")
			} else {
				s.metrics.ObserveBooking("guard_failed")
			}
			span.RecordError(err)
			return nil, err
		}
	}

	s.enter(log, StateWriting)
	id, err := s.write(ctx, NewEvent(req, start, end))
	release(context.WithoutCancel(ctx))
	if err != nil {
		s.enter(log, StateFailed, "error", err)
		s.metrics.ObserveBooking("write_failed")
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrCalendarWrite, err)
	}
	span.SetAttributes(attribute.String("kinesio.event_id", id))

	conf := &Confirmation{EventID: id, Request: req, Start: start, End: end}

	s.enter(log, StateNotifying, "event_id", id)
	conf.Notification = s.notify(ctx, log, *conf)

	s.enter(log, StateSucceeded, "event_id", id, "notified", !conf.Notification.Failed())
	s.metrics.ObserveBooking("succeeded")
	return conf, nil
}

func (s *Service) enter(log *logging.Logger, state State, args ...any) {
	args = append([]any{"state", string(state)}, args...)
	switch state {
	case StateFailed:
		log.Warn("booking: transaction failed", args...)
	case StateSucceeded:
		log.Info("booking: transaction succeeded", args...)
	default:
		log.Debug("booking: transaction state", args...)
	}
}

// resolve validates req and maps it to concrete slot bounds.
func (s *Service) resolve(req Request) (time.Time, time.Time, error) {
	if err := validateRequest(req); err != nil {
		return time.Time{}, time.Time{}, err
	}
	day, err := availability.ParseDay(req.Date, s.calc.Location())
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Invalid: []string{"date"}}
	}
	start, end, err := s.calc.SlotAt(day, req.Time)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Invalid: []string{"time"}}
	}
	if s.policy != nil {
		now := s.now()
		if s.policy.Closed(day, now) {
			return time.Time{}, time.Time{}, &ValidationError{Detail: "day is not open for bookings"}
		}
		if s.policy.RejectPastDates && !start.After(now) {
			return time.Time{}, time.Time{}, &ValidationError{Detail: "slot has already started"}
		}
	}
	return start, end, nil
}

// guard locks the slot and re-checks it against the calendar. A lock backend
// outage fails open; the calendar stays the source of truth.
func (s *Service) guard(ctx context.Context, log *logging.Logger, start, end time.Time) (func(context.Context), error) {
	release, acquired, err := s.locker.Acquire(ctx, slotKey(start))
	switch {
	case err != nil:
		log.Warn("booking: slot lock unavailable, continuing without it", "error", err)
		release = func(context.Context) {}
	case !acquired:
		return nil, ErrSlotTaken
	}

	if s.busy == nil {
		return release, nil
	}

	readCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	busy, err := s.busy.ListEvents(readCtx, start, end)
	if err != nil {
		release(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("%w: %w", availability.ErrCalendarRead, err)
	}
	if availability.Overlaps(start, end, busy) {
		release(context.WithoutCancel(ctx))
		return nil, ErrSlotTaken
	}
	return release, nil
}

func (s *Service) write(ctx context.Context, event Event) (string, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.calendar_write")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	started := time.Now()
	id, err := s.writer.InsertEvent(ctx, event)
	s.metrics.ObserveCalendarLatency("insert", time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return id, nil
}

// notify runs after the commit. It is detached from the caller's
// cancellation and never fails the transaction.
func (s *Service) notify(ctx context.Context, log *logging.Logger, conf Confirmation) (outcome NotifyOutcome) {
	if s.notifier == nil {
		return NotifyOutcome{}
	}
	ctx, span := bookingTracer.Start(context.WithoutCancel(ctx), "booking.notify")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			outcome = NotifyOutcome{Attempted: true, Err: fmt.Errorf("booking: notifier panic: %v", r)}
		}
		if outcome.Err != nil {
			span.RecordError(outcome.Err)
			log.Warn("booking: notification failed after commit",
				"error", outcome.Err,
				"event_id", conf.EventID,
				"operator_sent", outcome.OperatorSent,
				"patient_sent", outcome.PatientSent,
			)
			s.metrics.ObserveNotification("failed")
			return
		}
		if outcome.Attempted {
			s.metrics.ObserveNotification("sent")
		}
	}()

	return s.notifier.NotifyBooking(ctx, conf)
}
