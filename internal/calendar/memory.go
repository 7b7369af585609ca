package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/kinesio-agenda/internal/availability"
	"github.com/wolfman30/kinesio-agenda/internal/booking"
)

// MemoryGateway keeps events in process. It backs local development when no
// Google credentials are available.
type MemoryGateway struct {
	mu     sync.RWMutex
	events map[string]booking.Event
}

// NewMemoryGateway returns an empty in-memory calendar.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{events: make(map[string]booking.Event)}
}

// ListEvents implements the busy-interval read.
func (m *MemoryGateway) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]availability.BusyInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var busy []availability.BusyInterval
	for _, ev := range m.events {
		if ev.Start.Before(timeMax) && ev.End.After(timeMin) {
			busy = append(busy, availability.BusyInterval{Start: ev.Start, End: ev.End})
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

// InsertEvent stores event under a new id.
func (m *MemoryGateway) InsertEvent(ctx context.Context, event booking.Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.events[id] = event
	m.mu.Unlock()
	return id, nil
}

// Event returns a stored event.
func (m *MemoryGateway) Event(id string) (booking.Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	return ev, ok
}

// Len reports how many events are stored.
func (m *MemoryGateway) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}
