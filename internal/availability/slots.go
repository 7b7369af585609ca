// Package availability computes free appointment slots by subtracting busy
// calendar intervals from the practice's fixed daily working window.
package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidDate is returned when a requested day cannot be parsed.
	ErrInvalidDate = errors.New("availability: invalid date")

	// ErrOutsideWindow is returned when a clock time is not one of the
	// window's candidate slot starts.
	ErrOutsideWindow = errors.New("availability: time is not a bookable slot")
)

// BusyInterval is a time range occupied by an existing calendar event.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Slot is a free appointment start. Unavailable slots are omitted, never
// returned with Available=false.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Window is the daily span slots are generated in, [StartHour, EndHour).
type Window struct {
	StartHour    int
	EndHour      int
	SlotDuration time.Duration
}

// DefaultWindow is 09:00-18:00 in one hour slots.
func DefaultWindow() Window {
	return Window{StartHour: 9, EndHour: 18, SlotDuration: time.Hour}
}

// Validate reports an unusable window. Slots are whole hours so every slot
// starts on the hour.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("availability: invalid window %d-%d", w.StartHour, w.EndHour)
	}
	if w.SlotDuration < time.Hour || w.SlotDuration%time.Hour != 0 {
		return fmt.Errorf("availability: invalid slot duration %s", w.SlotDuration)
	}
	if w.SlotDuration > time.Duration(w.EndHour-w.StartHour)*time.Hour {
		return fmt.Errorf("availability: slot duration %s exceeds window", w.SlotDuration)
	}
	return nil
}

// candidateMinutes returns slot start offsets, in minutes after midnight.
func (w Window) candidateMinutes() []int {
	step := int(w.SlotDuration / time.Minute)
	end := w.EndHour * 60
	var out []int
	for m := w.StartHour * 60; m+step <= end; m += step {
		out = append(out, m)
	}
	return out
}

// Calculator produces free slots for a day. It holds no mutable state.
type Calculator struct {
	window Window
	loc    *time.Location
}

// NewCalculator builds a calculator for the window in loc (UTC when nil).
func NewCalculator(window Window, loc *time.Location) (*Calculator, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{window: window, loc: loc}, nil
}

// Location returns the calculator's timezone.
func (c *Calculator) Location() *time.Location { return c.loc }

// Window returns the configured working window.
func (c *Calculator) Window() Window { return c.window }

// DayBounds returns the [start, end) range of the working window on day.
func (c *Calculator) DayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.window.StartHour, 0, 0, 0, c.loc),
		time.Date(y, m, d, c.window.EndHour, 0, 0, 0, c.loc)
}

// FreeSlots returns the window's candidate slots on day that no busy interval
// overlaps, ascending. Overlap is half-open: busy.Start < slotEnd and
// busy.End > slotStart.
func (c *Calculator) FreeSlots(day time.Time, busy []BusyInterval) []Slot {
	y, m, d := day.Date()
	slots := make([]Slot, 0, len(c.window.candidateMinutes()))
	for _, offset := range c.window.candidateMinutes() {
		start := time.Date(y, m, d, offset/60, offset%60, 0, 0, c.loc)
		end := start.Add(c.window.SlotDuration)
		if overlapsAny(start, end, busy) {
			continue
		}
		slots = append(slots, Slot{Time: start.Format("15:04"), Available: true})
	}
	return slots
}

// SlotAt resolves a "HH:MM" clock time on day to a candidate slot's bounds.
func (c *Calculator) SlotAt(day time.Time, clock string) (time.Time, time.Time, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrOutsideWindow, clock)
	}
	want := parsed.Hour()*60 + parsed.Minute()
	for _, offset := range c.window.candidateMinutes() {
		if offset != want {
			continue
		}
		y, m, d := day.Date()
		start := time.Date(y, m, d, offset/60, offset%60, 0, 0, c.loc)
		return start, start.Add(c.window.SlotDuration), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrOutsideWindow, clock)
}

// Overlaps reports whether [start, end) intersects any busy interval.
func Overlaps(start, end time.Time, busy []BusyInterval) bool {
	return overlapsAny(start, end, busy)
}

func overlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if b.Start.Before(end) && b.End.After(start) {
			return true
		}
	}
	return false
}

// ParseDay parses a requested day. Plain dates are taken in loc; full ISO-8601
// timestamps contribute only their written date component.
func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}
