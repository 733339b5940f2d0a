package capability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loqui-ai/loqui/internal/engine"
)

// Slot is one bookable window in the consultant's calendar.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Schedule is the external calendar collaborator: given a day, it returns
// the free windows that remain on it.
type Schedule interface {
	FreeSlots(ctx context.Context, day time.Time) ([]Slot, error)
}

// Calendar is the scheduling capability. It reads a coarse day intent from
// the text (today, tomorrow, or the day after), asks the schedule for free
// windows, and formats them deterministically so replies are testable.
type Calendar struct {
	schedule Schedule
	now      func() time.Time
}

// NewCalendar creates the calendar adapter.
func NewCalendar(schedule Schedule) *Calendar {
	return &Calendar{schedule: schedule, now: time.Now}
}

// Invoke implements engine.Adapter.
func (c *Calendar) Invoke(ctx context.Context, turn *engine.Turn) (string, error) {
	day, label := c.resolveDay(turn.Text)

	slots, err := c.schedule.FreeSlots(ctx, day)
	if err != nil {
		return "", fmt.Errorf("looking up calendar availability: %w", err)
	}
	if len(slots) == 0 {
		return fmt.Sprintf("There are no free consultation slots %s (%s). Would another day work for you?",
			label, day.Format("2006-01-02")), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Free consultation slots %s (%s):\n", label, day.Format("2006-01-02"))
	for _, s := range slots {
		fmt.Fprintf(&b, "- %s to %s\n", s.Start.Format("15:04"), s.End.Format("15:04"))
	}
	b.WriteString("Reply with a time and I will book it for you.")
	return b.String(), nil
}

// resolveDay maps day cues to a concrete date, defaulting to tomorrow the
// way the assistant's scheduling flow always has.
func (c *Calendar) resolveDay(text string) (time.Time, string) {
	lower := strings.ToLower(text)
	today := c.now().Truncate(24 * time.Hour)
	switch {
	case containsAny(lower, "今天", "today"):
		return today, "today"
	case containsAny(lower, "後天", "day after tomorrow"):
		return today.AddDate(0, 0, 2), "the day after tomorrow"
	default:
		return today.AddDate(0, 0, 1), "tomorrow"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// StaticSchedule is a business-hours stand-in for the external calendar
// API: fixed morning and afternoon windows on weekdays, nothing on
// weekends. It keeps the capability usable when no calendar integration is
// configured.
type StaticSchedule struct{}

// FreeSlots implements Schedule.
func (StaticSchedule) FreeSlots(_ context.Context, day time.Time) ([]Slot, error) {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return nil, nil
	}
	at := func(h int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, day.Location())
	}
	return []Slot{
		{Start: at(10), End: at(11)},
		{Start: at(14), End: at(15)},
		{Start: at(16), End: at(17)},
	}, nil
}
