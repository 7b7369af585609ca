// Package widget serves the embeddable booking page. All availability comes
// from the slots API; the page only mirrors the server's closed days so they
// can be greyed out in the day picker.
package widget

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/kinesio-agenda/internal/booking"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

// reasonLabels maps the canonical reason values to what the patient sees.
var reasonLabels = map[string]string{
	"General evaluation":            "Evaluación general",
	"Back pain":                     "Dolor de espalda",
	"Sports injury":                 "Lesión deportiva",
	"Post-operative rehabilitation": "Rehabilitación post operatoria",
	"Respiratory kinesiology":       "Kinesiología respiratoria",
	"Other":                         "Otro",
}

// Config controls what the page shows.
type Config struct {
	Title           string
	Subtitle        string
	APIPath         string
	ClosedWeekdays  []time.Weekday
	RejectPastDates bool
	Logger          *logging.Logger
}

// Reason is a select option.
type Reason struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// pageConfig is embedded as JSON for the page script.
type pageConfig struct {
	APIPath         string   `json:"apiPath"`
	ClosedWeekdays  []int    `json:"closedWeekdays"`
	RejectPastDates bool     `json:"rejectPastDates"`
	DefaultReason   string   `json:"defaultReason"`
	Reasons         []Reason `json:"reasons"`
}

type pageData struct {
	Title    string
	Subtitle string
	Compact  bool
	Config   pageConfig
}

// Handler renders the booking widget.
type Handler struct {
	cfg    Config
	page   pageConfig
	logger *logging.Logger
}

// NewHandler creates a widget handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Title == "" {
		cfg.Title = "Reserva tu hora"
	}
	if cfg.Subtitle == "" {
		cfg.Subtitle = "Kinesiología a domicilio"
	}
	if cfg.APIPath == "" {
		cfg.APIPath = "/api/slots"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	closed := make([]int, 0, len(cfg.ClosedWeekdays))
	for _, wd := range cfg.ClosedWeekdays {
		closed = append(closed, int(wd))
	}
	return &Handler{
		cfg: cfg,
		page: pageConfig{
			APIPath:         cfg.APIPath,
			ClosedWeekdays:  closed,
			RejectPastDates: cfg.RejectPastDates,
			DefaultReason:   booking.DefaultReason,
			Reasons:         Reasons(),
		},
		logger: cfg.Logger,
	}
}

// Reasons returns the select options in display order.
func Reasons() []Reason {
	out := make([]Reason, 0, len(booking.Reasons))
	for _, value := range booking.Reasons {
		label, ok := reasonLabels[value]
		if !ok {
			label = value
		}
		out = append(out, Reason{Value: value, Label: label})
	}
	return out
}

// Routes mounts the page at the router root.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePage)
	return r
}

// ServePage writes the page. ?compact=1 stacks the picker above the slots
// for narrow embeds.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	compact := r.URL.Query().Get("compact")
	data := pageData{
		Title:    h.cfg.Title,
		Subtitle: h.cfg.Subtitle,
		Compact:  compact == "1" || compact == "true",
		Config:   h.page,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("widget: render failed", "error", err)
		http.Error(w, "widget unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
