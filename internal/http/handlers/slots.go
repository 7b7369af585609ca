package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/kinesio-agenda/internal/availability"
	"github.com/wolfman30/kinesio-agenda/internal/booking"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

const maxBookingBody = 16 << 10

// SlotQuerier lists the free slots of a day.
type SlotQuerier interface {
	Query(ctx context.Context, day time.Time) ([]availability.Slot, error)
}

// BookingSubmitter runs a booking transaction.
type BookingSubmitter interface {
	Submit(ctx context.Context, req booking.Request) (*booking.Confirmation, error)
}

// SlotsHandlerConfig wires the slots endpoints.
type SlotsHandlerConfig struct {
	Availability SlotQuerier
	Bookings     BookingSubmitter
	Location     *time.Location
	Logger       *logging.Logger
}

// SlotsHandler serves GET and POST /api/slots.
type SlotsHandler struct {
	availability SlotQuerier
	bookings     BookingSubmitter
	loc          *time.Location
	logger       *logging.Logger
}

// NewSlotsHandler creates the slots handler.
func NewSlotsHandler(cfg SlotsHandlerConfig) *SlotsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &SlotsHandler{
		availability: cfg.Availability,
		bookings:     cfg.Bookings,
		loc:          cfg.Location,
		logger:       cfg.Logger,
	}
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

type bookingResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// ListSlots handles GET /api/slots?date=.
func (h *SlotsHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Date is required"})
		return
	}
	day, err := availability.ParseDay(raw, h.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid date", Details: err.Error()})
		return
	}

	slots, err := h.availability.Query(r.Context(), day)
	if err != nil {
		h.logger.Error("slots: availability query failed", "error", err, "date", raw)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch slots", Details: err.Error()})
		return
	}
	if slots == nil {
		slots = []availability.Slot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

// CreateBooking handles POST /api/slots.
func (h *SlotsHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBookingBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Details: err.Error()})
		return
	}

	conf, err := h.bookings.Submit(r.Context(), req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Success: true, ID: conf.EventID})
}

func (h *SlotsHandler) writeBookingError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := append(append([]string{}, verr.Missing...), verr.Invalid...)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: fields})
	case errors.Is(err, booking.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrSlotTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Slot no longer available"})
	default:
		h.logger.Error("slots: booking failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create booking", Details: err.Error()})
	}
}
