package capability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqui-ai/loqui/internal/engine"
)

// fixedNow is a Wednesday so weekday slots are available around it.
var fixedNow = time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC)

func newTestCalendar(schedule Schedule) *Calendar {
	c := NewCalendar(schedule)
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestCalendar_DefaultsToTomorrow(t *testing.T) {
	c := newTestCalendar(StaticSchedule{})

	out, err := c.Invoke(context.Background(), &engine.Turn{Text: "can we book a meeting?"})

	require.NoError(t, err)
	assert.Contains(t, out, "tomorrow")
	assert.Contains(t, out, "2026-03-05")
	assert.Contains(t, out, "10:00 to 11:00")
}

func TestCalendar_Today(t *testing.T) {
	c := newTestCalendar(StaticSchedule{})

	out, err := c.Invoke(context.Background(), &engine.Turn{Text: "any slots today?"})

	require.NoError(t, err)
	assert.Contains(t, out, "today")
	assert.Contains(t, out, "2026-03-04")
}

func TestCalendar_DayAfterTomorrow(t *testing.T) {
	c := newTestCalendar(StaticSchedule{})

	out, err := c.Invoke(context.Background(), &engine.Turn{Text: "後天有空嗎"})

	require.NoError(t, err)
	assert.Contains(t, out, "2026-03-06")
}

func TestCalendar_EmptyScheduleSuggestsAnotherDay(t *testing.T) {
	// Friday + 1 = Saturday, which the static schedule leaves empty.
	c := NewCalendar(StaticSchedule{})
	c.now = func() time.Time { return time.Date(2026, time.March, 6, 9, 0, 0, 0, time.UTC) }

	out, err := c.Invoke(context.Background(), &engine.Turn{Text: "book a meeting"})

	require.NoError(t, err)
	assert.Contains(t, out, "no free consultation slots")
}

type failingSchedule struct{}

func (failingSchedule) FreeSlots(context.Context, time.Time) ([]Slot, error) {
	return nil, errors.New("calendar api down")
}

func TestCalendar_ScheduleErrorPropagates(t *testing.T) {
	c := newTestCalendar(failingSchedule{})

	_, err := c.Invoke(context.Background(), &engine.Turn{Text: "book a meeting"})
	assert.Error(t, err)
}

func TestCalendar_Deterministic(t *testing.T) {
	c := newTestCalendar(StaticSchedule{})
	turn := &engine.Turn{Text: "book a meeting tomorrow"}

	first, err := c.Invoke(context.Background(), turn)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := c.Invoke(context.Background(), turn)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestStaticSchedule_WeekdaySlots(t *testing.T) {
	slots, err := StaticSchedule{}.FreeSlots(context.Background(),
		time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, 10, slots[0].Start.Hour())
	assert.Equal(t, 17, slots[2].End.Hour())
}

func TestStaticSchedule_WeekendEmpty(t *testing.T) {
	slots, err := StaticSchedule{}.FreeSlots(context.Background(),
		time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Empty(t, slots)
}
