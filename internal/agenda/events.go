// Package agenda lays out the day's calendar events as a bordered table
// for a fixed-width receipt printer.
package agenda

import (
	"slices"

	"thermalprint/internal/model"
)

// FromOccurrences projects expanded occurrences onto agenda rows. All-day
// occurrences start and end at midnight, so they become whole-day rows.
func FromOccurrences(occ []model.Occurrence) []model.Event {
	out := make([]model.Event, 0, len(occ))
	for _, o := range occ {
		out = append(out, model.Event{
			Start: model.ClockOf(o.Start),
			End:   model.ClockOf(o.End),
			Title: o.Summary,
		})
	}
	return out
}

// Normalize drops exact duplicates and orders the rest by start time.
// The input is not modified.
func Normalize(events []model.Event) []model.Event {
	out := slices.Clone(events)
	slices.SortFunc(out, model.Event.Compare)
	return slices.Compact(out)
}
