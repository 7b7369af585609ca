package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wolfman30/kinesio-agenda/internal/booking"
	"github.com/wolfman30/kinesio-agenda/pkg/logging"
)

// Config holds notification targets.
type Config struct {
	OperatorEmail string
	PracticeName  string
}

// Service sends the operator and patient emails for a confirmed booking.
type Service struct {
	email  EmailSender
	cfg    Config
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables sending.
func NewService(email EmailSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PracticeName == "" {
		cfg.PracticeName = defaultFromName
	}
	return &Service{email: email, cfg: cfg, logger: logger}
}

// NotifyBooking emails the operator and, when an address was given, the
// patient. Failures are returned in the outcome, never as a panic or error.
func (s *Service) NotifyBooking(ctx context.Context, conf booking.Confirmation) booking.NotifyOutcome {
	var outcome booking.NotifyOutcome
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping notifications", "event_id", conf.EventID)
		return outcome
	}

	view := newBookingView(conf, s.cfg.PracticeName)
	var errs []error

	if s.cfg.OperatorEmail != "" {
		outcome.Attempted = true
		msg, err := s.operatorMessage(view)
		if err == nil {
			err = s.email.Send(ctx, msg)
		}
		if err != nil {
			s.logger.Error("notify: failed to send operator email", "error", err, "event_id", conf.EventID)
			errs = append(errs, fmt.Errorf("notify: operator email: %w", err))
		} else {
			outcome.OperatorSent = true
			s.logger.Info("notify: operator email sent", "event_id", conf.EventID)
		}
	} else {
		s.logger.Warn("notify: operator email not configured", "event_id", conf.EventID)
	}

	if conf.Request.Email != "" {
		outcome.Attempted = true
		msg, err := s.patientMessage(view)
		if err == nil {
			err = s.email.Send(ctx, msg)
		}
		if err != nil {
			s.logger.Error("notify: failed to send patient email", "error", err, "event_id", conf.EventID)
			errs = append(errs, fmt.Errorf("notify: patient email: %w", err))
		} else {
			outcome.PatientSent = true
			s.logger.Info("notify: patient email sent", "event_id", conf.EventID)
		}
	}

	outcome.Err = errors.Join(errs...)
	return outcome
}

type bookingView struct {
	Practice string
	EventID  string
	Name     string
	Phone    string
	Email    string
	Address  string
	Reason   string
	When     string
	Day      string
	Time     string
}

var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var spanishMonths = [...]string{"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

func newBookingView(conf booking.Confirmation, practice string) bookingView {
	req := conf.Request
	day := fmt.Sprintf("%s %d de %s", spanishWeekdays[conf.Start.Weekday()], conf.Start.Day(), spanishMonths[conf.Start.Month()])
	clock := conf.Start.Format("15:04")
	return bookingView{
		Practice: practice,
		EventID:  conf.EventID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		Reason:   req.Reason,
		Day:      day,
		Time:     clock,
		When:     fmt.Sprintf("%s, %s hrs (%s)", day, clock, durationLabel(conf.End.Sub(conf.Start))),
	}
}

func durationLabel(d time.Duration) string {
	if d%time.Hour == 0 && d > 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hora"
		}
		return fmt.Sprintf("%d horas", h)
	}
	return fmt.Sprintf("%d min", int(d/time.Minute))
}

var operatorHTML = template.Must(template.New("operator").Parse(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #0f766e;">Nueva reserva</h2>
<p><strong>{{.Name}}</strong> reservó una visita para el <strong>{{.When}}</strong>.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Paciente:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Name}}</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Teléfono:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><a href="tel:{{.Phone}}">{{.Phone}}</a></td></tr>
  {{if .Email}}<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Email:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Email}}</td></tr>{{end}}
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Dirección:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Address}}</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Motivo:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Reason}}</td></tr>
</table>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">Evento de calendario: {{.EventID}}</p>
</div>`))

var patientHTML = template.Must(template.New("patient").Parse(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #0f766e;">¡Tu hora está reservada!</h2>
<p>Hola {{.Name}}, confirmamos tu visita de kinesiología a domicilio.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Fecha:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Day}}</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Hora:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Time}}</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Dirección:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Address}}</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Motivo:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">{{.Reason}}</td></tr>
</table>
<p>Si necesitas reagendar, responde este correo.</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— {{.Practice}}</p>
</div>`))

func renderHTML(t *template.Template, view bookingView) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func (s *Service) operatorMessage(view bookingView) (EmailMessage, error) {
	html, err := renderHTML(operatorHTML, view)
	if err != nil {
		return EmailMessage{}, err
	}
	lines := []string{
		fmt.Sprintf("%s reservó una visita para el %s.", view.Name, view.When),
		"",
		"Paciente: " + view.Name,
		"Teléfono: " + view.Phone,
	}
	if view.Email != "" {
		lines = append(lines, "Email: "+view.Email)
	}
	lines = append(lines,
		"Dirección: "+view.Address,
		"Motivo: "+view.Reason,
		"",
		"Evento de calendario: "+view.EventID,
	)
	return EmailMessage{
		To:      s.cfg.OperatorEmail,
		ReplyTo: view.Email,
		Subject: fmt.Sprintf("Nueva reserva: %s - %s %s", view.Name, view.Day, view.Time),
		Body:    strings.Join(lines, "\n"),
		HTML:    html,
	}, nil
}

func (s *Service) patientMessage(view bookingView) (EmailMessage, error) {
	html, err := renderHTML(patientHTML, view)
	if err != nil {
		return EmailMessage{}, err
	}
	body := fmt.Sprintf("Hola %s, confirmamos tu visita de kinesiología a domicilio.\n\nFecha: %s\nHora: %s\nDirección: %s\nMotivo: %s\n\nSi necesitas reagendar, responde este correo.\n\n— %s",
		view.Name, view.Day, view.Time, view.Address, view.Reason, view.Practice)
	return EmailMessage{
		To:      view.Email,
		ToName:  view.Name,
		ReplyTo: s.cfg.OperatorEmail,
		Subject: fmt.Sprintf("Reserva confirmada: %s %s", view.Day, view.Time),
		Body:    body,
		HTML:    html,
	}, nil
}

var _ booking.Notifier = (*Service)(nil)
