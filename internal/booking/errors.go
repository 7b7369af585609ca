package booking

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks a user-correctable request problem.
	ErrValidation = errors.New("booking: invalid request")

	// ErrCalendarWrite means the appointment was not persisted. No
	// notification is attempted after it.
	ErrCalendarWrite = errors.New("booking: calendar write failed")

	// ErrSlotTaken is returned by the optional booking guard when the slot is
	// already held or occupied.
	ErrSlotTaken = errors.New("booking: slot no longer available")
)

// ValidationError lists the problems found in a Request.
type ValidationError struct {
	Missing []string
	Invalid []string
	Detail  string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if len(parts) == 0 {
		return ErrValidation.Error()
	}
	return "booking: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
