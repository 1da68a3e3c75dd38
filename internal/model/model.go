package model

import (
	"cmp"
	"fmt"
	"time"
)

// Occurrence is a single concrete instance of a calendar event after
// recurrence expansion, expressed in the display timezone.
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	Summary  string
	Location string

	AllDay bool

	Start time.Time
	End   time.Time
}

// TimeOfDay is a wall-clock time with minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ClockOf truncates t to its wall-clock hour and minute.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("model: invalid time of day %q: %w", s, err)
	}
	return ClockOf(t), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Compare(o TimeOfDay) int {
	if c := cmp.Compare(t.Hour, o.Hour); c != 0 {
		return c
	}
	return cmp.Compare(t.Minute, o.Minute)
}

// Event is one agenda row. Two events are the same row when all three
// fields are equal.
type Event struct {
	Start TimeOfDay
	End   TimeOfDay
	Title string
}

// WholeDay reports whether the event has no distinct time span.
func (e Event) WholeDay() bool {
	return e.Start == e.End
}

// Compare orders events by start, then end, then title.
func (e Event) Compare(o Event) int {
	if c := e.Start.Compare(o.Start); c != 0 {
		return c
	}
	if c := e.End.Compare(o.End); c != 0 {
		return c
	}
	return cmp.Compare(e.Title, o.Title)
}

// WeatherSnapshot is the day's weather as consumed by the report.
type WeatherSnapshot struct {
	Icon    string
	TempMin int
	TempMax int

	WindSpeed int
	// WindBearing is nil when there is no wind.
	WindBearing *float64

	Humidity      int // percent
	Precipitation int // max precipitation intensity, scaled x100
}
