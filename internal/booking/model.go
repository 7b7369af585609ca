// Package booking runs the booking transaction: validate the patient's
// request, write the appointment to the practice calendar, then notify the
// operator and patient on a best-effort basis.
package booking

import (
	"fmt"
	"strings"
	"time"
)

// DefaultReason is used when the patient leaves the reason blank.
const DefaultReason = "General evaluation"

// Reasons is the fixed set of consultation reasons offered by the widget.
var Reasons = []string{
	DefaultReason,
	"Back pain",
	"Sports injury",
	"Post-operative rehabilitation",
	"Respiratory kinesiology",
	"Other",
}

// Request is the patient's booking form submission.
type Request struct {
	Date    string `json:"date" validate:"required"`
	Time    string `json:"time" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address"`
	Reason  string `json:"reason" validate:"reason"`
}

// normalize trims every field and applies the default reason.
func (r Request) normalize() Request {
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		r.Reason = DefaultReason
	}
	return r
}

// Event is the appointment written to the external calendar.
type Event struct {
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// NewEvent builds the calendar record for a validated request.
func NewEvent(req Request, start, end time.Time) Event {
	var desc strings.Builder
	fmt.Fprintf(&desc, "Patient: %s\n", req.Name)
	fmt.Fprintf(&desc, "Phone: %s\n", req.Phone)
	fmt.Fprintf(&desc, "Reason: %s\n", req.Reason)
	fmt.Fprintf(&desc, "Address: %s\n", req.Address)
	if req.Email != "" {
		fmt.Fprintf(&desc, "Email: %s\n", req.Email)
	}
	return Event{
		Summary:     fmt.Sprintf("Home visit: %s (%s)", req.Name, req.Reason),
		Location:    req.Address,
		Description: strings.TrimRight(desc.String(), "\n"),
		Start:       start,
		End:         end,
		TimeZone:    start.Location().String(),
	}
}

// NotifyOutcome records what the best-effort notification phase achieved.
// It is metadata on a committed booking, never a transaction failure.
type NotifyOutcome struct {
	Attempted    bool
	OperatorSent bool
	PatientSent  bool
	Err          error
}

// Failed reports whether any attempted notification did not go out.
func (o NotifyOutcome) Failed() bool { return o.Err != nil }

// Confirmation describes a booking that has been written to the calendar.
type Confirmation struct {
	EventID      string
	Request      Request
	Start        time.Time
	End          time.Time
	Notification NotifyOutcome
}
