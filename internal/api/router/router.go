package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/kinesio-agenda/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/kinesio-agenda/internal/http/middleware"
	"github.com/wolfman30/kinesio-agenda/internal/widget"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	SlotsHandler       *handlers.SlotsHandler
	Widget             *widget.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// BookingLimiter throttles POST /api/slots per client IP (optional).
	BookingLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.SlotsHandler != nil {
		r.Route("/api/slots", func(api chi.Router) {
			api.Get("/", cfg.SlotsHandler.ListSlots)
			if cfg.BookingLimiter != nil {
				api.With(httpmiddleware.RateLimit(cfg.BookingLimiter, cfg.Logger)).Post("/", cfg.SlotsHandler.CreateBooking)
			} else {
				api.Post("/", cfg.SlotsHandler.CreateBooking)
			}
		})
	}

	if cfg.Widget != nil {
		r.Get("/", cfg.Widget.ServePage)
		r.Mount("/agenda", cfg.Widget.Routes())
	}

	return r
}
