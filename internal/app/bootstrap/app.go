package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/wolfman30/kinesio-agenda/internal/api/router"
	"github.com/wolfman30/kinesio-agenda/internal/availability"
	"github.com/wolfman30/kinesio-agenda/internal/booking"
	"github.com/wolfman30/kinesio-agenda/internal/calendar"
	appconfig "github.com/wolfman30/kinesio-agenda/internal/config"
	"github.com/wolfman30/kinesio-agenda/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/kinesio-agenda/internal/http/middleware"
	"github.com/wolfman30/kinesio-agenda/internal/notify"
	"github.com/wolfman30/kinesio-agenda/internal/observability/metrics"
	"github.com/wolfman30/kinesio-agenda/internal/widget"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

// Deps are the infrastructure clients built by the binary.
type Deps struct {
	// SES is used when EMAIL_PROVIDER=ses.
	SES notify.SESAPI
	// Redis backs the slot guard lock when BOOKING_GUARD is on.
	Redis *redis.Client
	// Calendar overrides the configured calendar backend.
	Calendar calendar.Gateway
	// CalendarOptions are appended to the Google client options.
	CalendarOptions []option.ClientOption
}

// App is the assembled HTTP application.
type App struct {
	Handler      http.Handler
	Limiter      *httpmiddleware.RateLimiter
	Availability *availability.Service
	Bookings     *booking.Service
	Registry     *prometheus.Registry
}

// Build wires every service from config.
func Build(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loc := cfg.Location()
	window := availability.Window{
		StartHour:    cfg.WorkStartHour,
		EndHour:      cfg.WorkEndHour,
		SlotDuration: cfg.SlotDuration,
	}
	calc, err := availability.NewCalculator(window, loc)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	policy := availability.DayPolicy{
		ClosedWeekdays:  cfg.ClosedWeekdays,
		RejectPastDates: cfg.RejectPastDates,
	}

	gateway := deps.Calendar
	if gateway == nil {
		gateway, err = BuildCalendarGateway(ctx, cfg, logger, deps.CalendarOptions...)
		if err != nil {
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	availabilitySvc := availability.NewService(calc, gateway, policy, logger,
		availability.WithTimeout(cfg.CalendarTimeout),
		availability.WithMetrics(bookingMetrics),
	)

	notifier := notify.NewService(BuildEmailSender(cfg, deps.SES, logger), notify.Config{
		OperatorEmail: cfg.OperatorEmail,
		PracticeName:  cfg.SendGridFromName,
	}, logger)

	bookingOpts := []booking.Option{
		booking.WithNotifier(notifier),
		booking.WithDayPolicy(policy),
		booking.WithTimeouts(cfg.CalendarTimeout, cfg.NotifyTimeout),
		booking.WithMetrics(bookingMetrics),
	}
	if cfg.BookingGuard {
		bookingOpts = append(bookingOpts, booking.WithGuard(BuildSlotLocker(cfg, deps.Redis, logger), gateway))
		logger.Info("booking guard enabled", "redis", deps.Redis != nil)
	}
	bookingSvc := booking.NewService(calc, gateway, logger, bookingOpts...)

	limiter := httpmiddleware.NewRateLimiter(cfg.BookingRatePerMinute, cfg.BookingRateBurst)
	handler := router.New(&router.Config{
		Logger: logger,
		SlotsHandler: handlers.NewSlotsHandler(handlers.SlotsHandlerConfig{
			Availability: availabilitySvc,
			Bookings:     bookingSvc,
			Location:     loc,
			Logger:       logger,
		}),
		Widget: widget.NewHandler(widget.Config{
			ClosedWeekdays:  cfg.ClosedWeekdays,
			RejectPastDates: cfg.RejectPastDates,
			Logger:          logger,
		}),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		BookingLimiter:     limiter,
	})

	return &App{
		Handler:      handler,
		Limiter:      limiter,
		Availability: availabilitySvc,
		Bookings:     bookingSvc,
		Registry:     registry,
	}, nil
}

// BuildCalendarGateway selects the calendar backend.
func BuildCalendarGateway(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts ...option.ClientOption) (calendar.Gateway, error) {
	switch cfg.CalendarBackend {
	case "memory":
		logger.Warn("using in-memory calendar; bookings are lost on restart")
		return calendar.NewMemoryGateway(), nil
	case "google", "":
		gw, err := calendar.NewGoogleGateway(ctx, calendar.GoogleConfig{
			CalendarID:      cfg.CalendarID,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
			Location:        cfg.Location(),
		}, logger, opts...)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown calendar backend %q", cfg.CalendarBackend)
	}
}

// BuildEmailSender picks the email provider. "auto" prefers SendGrid when a
// key is configured and otherwise logs emails instead of sending them.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) notify.EmailSender {
	provider := strings.ToLower(strings.TrimSpace(cfg.EmailProvider))
	if provider == "auto" || provider == "" {
		provider = "stub"
		if cfg.SendGridAPIKey != "" {
			provider = "sendgrid"
		}
	}

	switch provider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("SENDGRID_API_KEY not set; falling back to stub email sender")
	case "ses":
		if sender := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("SES client not available; falling back to stub email sender")
	}
	return notify.NewStubEmailSender(logger)
}
