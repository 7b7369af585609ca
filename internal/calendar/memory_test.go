package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/kinesio-agenda/internal/booking"
)

func TestMemoryGateway_ListIntersecting(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, h := range []int{8, 10, 17} {
		_, err := gw.InsertEvent(ctx, booking.Event{
			Summary: "visit",
			Start:   day.Add(time.Duration(h) * time.Hour),
			End:     day.Add(time.Duration(h+1) * time.Hour),
		})
		require.NoError(t, err)
	}

	busy, err := gw.ListEvents(ctx, day.Add(9*time.Hour), day.Add(18*time.Hour))
	require.NoError(t, err)
	require.Len(t, busy, 2)
	assert.Equal(t, 10, busy[0].Start.Hour())
	assert.Equal(t, 17, busy[1].Start.Hour())

	busy, err = gw.ListEvents(ctx, day.Add(9*time.Hour), day.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, busy, "an event ending exactly at timeMin does not intersect")
}

func TestMemoryGateway_InsertAndLookup(t *testing.T) {
	gw := NewMemoryGateway()
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	id, err := gw.InsertEvent(context.Background(), booking.Event{Summary: "Ana", Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	ev, ok := gw.Event(id)
	require.True(t, ok)
	assert.Equal(t, "Ana", ev.Summary)
	assert.Equal(t, 1, gw.Len())
}

func TestMemoryGateway_CanceledContext(t *testing.T) {
	gw := NewMemoryGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.ListEvents(ctx, time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = gw.InsertEvent(ctx, booking.Event{})
	assert.ErrorIs(t, err, context.Canceled)
}
