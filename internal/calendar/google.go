// Package calendar adapts the practice's external calendar to the busy
// interval reads and appointment writes the booking flow needs.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/wolfman30/kinesio-agenda/internal/availability"
	"github.com/wolfman30/kinesio-agenda/internal/booking"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

var calendarTracer = otel.Tracer("kinesio.internal.calendar")

// Gateway is the calendar surface the booking flow depends on.
type Gateway interface {
	availability.BusyLister
	booking.CalendarWriter
}

var (
	_ Gateway = (*GoogleGateway)(nil)
	_ Gateway = (*MemoryGateway)(nil)
)

// GoogleConfig holds Google Calendar settings.
type GoogleConfig struct {
	CalendarID string
	// CredentialsJSON is an inline service-account key. It takes precedence
	// over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	Location        *time.Location
}

// GoogleGateway reads and writes events on a single Google calendar using a
// service account.
type GoogleGateway struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
	logger     *logging.Logger
}

// NewGoogleGateway authenticates and builds the gateway. Extra client options
// are appended after the credential option.
func NewGoogleGateway(ctx context.Context, cfg GoogleConfig, logger *logging.Logger, opts ...option.ClientOption) (*GoogleGateway, error) {
	if strings.TrimSpace(cfg.CalendarID) == "" {
		return nil, errors.New("calendar: calendar id is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	var clientOpts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, option.WithScopes(gcal.CalendarEventsScope))
	clientOpts = append(clientOpts, opts...)

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create google calendar client: %w", err)
	}
	return &GoogleGateway{
		svc:        svc,
		calendarID: cfg.CalendarID,
		loc:        cfg.Location,
		logger:     logger,
	}, nil
}

// ListEvents returns the busy intervals of every event intersecting
// [timeMin, timeMax). Cancelled events and events marked "free" are skipped.
// An event whose times cannot be read fails the whole listing.
func (g *GoogleGateway) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]availability.BusyInterval, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.list_events")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.id", g.calendarID))

	call := g.svc.Events.List(g.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false)

	var busy []availability.BusyInterval
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if item == nil || item.Status == "cancelled" || item.Transparency == "transparent" {
				continue
			}
			interval, err := g.interval(item)
			if err != nil {
				return fmt.Errorf("event %s: %w", item.Id, err)
			}
			busy = append(busy, interval)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}
	span.SetAttributes(attribute.Int("calendar.busy", len(busy)))
	return busy, nil
}

// InsertEvent creates the appointment and returns Google's event id.
func (g *GoogleGateway) InsertEvent(ctx context.Context, event booking.Event) (string, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.insert_event")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.id", g.calendarID))

	tz := event.TimeZone
	if tz == "" {
		tz = g.loc.String()
	}
	created, err := g.svc.Events.Insert(g.calendarID, &gcal.Event{
		Summary:     event.Summary,
		Location:    event.Location,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: tz},
		End:         &gcal.EventDateTime{DateTime: event.End.Format(time.RFC3339), TimeZone: tz},
	}).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}
	g.logger.Info("calendar: event created", "event_id", created.Id, "start", event.Start.Format(time.RFC3339))
	return created.Id, nil
}

func (g *GoogleGateway) interval(item *gcal.Event) (availability.BusyInterval, error) {
	start, err := g.eventTime(item.Start)
	if err != nil {
		return availability.BusyInterval{}, fmt.Errorf("start: %w", err)
	}
	end, err := g.eventTime(item.End)
	if err != nil {
		return availability.BusyInterval{}, fmt.Errorf("end: %w", err)
	}
	return availability.BusyInterval{Start: start, End: end}, nil
}

// eventTime reads a timed or all-day boundary. All-day dates are midnight in
// the event's zone, or the gateway's zone when the event has none.
func (g *GoogleGateway) eventTime(dt *gcal.EventDateTime) (time.Time, error) {
	if dt == nil {
		return time.Time{}, errors.New("missing time")
	}
	if dt.DateTime != "" {
		return time.Parse(time.RFC3339, dt.DateTime)
	}
	if dt.Date != "" {
		loc := g.loc
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		return time.ParseInLocation(time.DateOnly, dt.Date, loc)
	}
	return time.Time{}, errors.New("empty time")
}
