package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "thermalprint/internal/log"
	"thermalprint/internal/model"
)

const defaultMaxOccurrences = 5000

// Window selects occurrences overlapping [Start, End] and converts them to
// Location.
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location

	// MaxOccurrences caps a single recurring event. Zero means the default.
	MaxOccurrences int
}

// Expand turns parsed VEVENTs into concrete occurrences inside w, applying
// RRULE, EXDATE and RECURRENCE-ID overrides.
func Expand(events []VEvent, w Window) ([]model.Occurrence, error) {
	if w.End.Before(w.Start) {
		return nil, errors.New("expand: window end is before start")
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxOccurrences <= 0 {
		w.MaxOccurrences = defaultMaxOccurrences
	}

	overrides := make(map[string][]VEvent)
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	out := make([]model.Occurrence, 0)
	for _, ev := range events {
		switch {
		case ev.RecurrenceID != nil:
			// Overrides are placed by their own start, which may be on
			// another day than the instance they replace.
			if ev.Cancelled {
				continue
			}
			if o, ok := occurrenceIn(ev, w); ok {
				out = append(out, o)
			}
		case ev.Cancelled:
		case ev.RRule == "":
			if overridden(ev.Start, overrides[ev.UID]) {
				continue
			}
			if o, ok := occurrenceIn(ev, w); ok {
				out = append(out, o)
			}
		default:
			out = append(out, expandRecurring(ev, overrides[ev.UID], w)...)
		}
	}
	return out, nil
}

func expandRecurring(ev VEvent, overrides []VEvent, w Window) []model.Occurrence {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Error("expand: bad RRULE", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the event duration so instances that started
	// before the window but are still running are kept.
	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	starts := set.Between(w.Start.Add(-dur).In(loc), w.End.In(loc), true)
	if len(starts) > w.MaxOccurrences {
		appLog.Warn("expand: occurrences truncated", "uid", ev.UID, "cap", w.MaxOccurrences)
		starts = starts[:w.MaxOccurrences]
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		if overridden(s, overrides) {
			continue
		}
		inst := ev
		inst.Start = s
		inst.End = s.Add(dur)
		if o, ok := occurrenceIn(inst, w); ok {
			out = append(out, o)
		}
	}
	return out
}

// overridden reports whether a RECURRENCE-ID override replaces the
// instance originally starting at start.
func overridden(start time.Time, overrides []VEvent) bool {
	for _, ov := range overrides {
		if ov.RecurrenceID.Equal(start) {
			return true
		}
	}
	return false
}

func occurrenceIn(ev VEvent, w Window) (model.Occurrence, bool) {
	start, end := ev.Start.In(w.Location), ev.End.In(w.Location)
	if ev.AllDay {
		// DATE values carry no zone; keep the calendar day in the display zone.
		start = time.Date(ev.Start.Year(), ev.Start.Month(), ev.Start.Day(), 0, 0, 0, 0, w.Location)
		end = time.Date(ev.End.Year(), ev.End.Month(), ev.End.Day(), 0, 0, 0, 0, w.Location)
	}
	if end.Before(w.Start) || start.After(w.End) {
		return model.Occurrence{}, false
	}
	// An all-day event ending exactly at the window start is yesterday's.
	if ev.AllDay && !end.After(w.Start) {
		return model.Occurrence{}, false
	}
	return model.Occurrence{
		SourceID: ev.Feed.ID,
		UID:      ev.UID,
		Summary:  ev.Summary,
		Location: ev.Location,
		AllDay:   ev.AllDay,
		Start:    start,
		End:      end,
	}, true
}
