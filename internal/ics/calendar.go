package ics

import (
	"context"
	"fmt"
	"time"

	"thermalprint/internal/model"
)

// Calendar fetches, parses and expands a set of feeds for the daily agenda.
type Calendar struct {
	fetcher  *Fetcher
	feeds    []Feed
	location *time.Location
}

// NewCalendar reads feeds through fetcher and reports occurrences in loc.
func NewCalendar(fetcher *Fetcher, feeds []Feed, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{fetcher: fetcher, feeds: feeds, location: loc}
}

// DayWindow is the agenda window for now: from local midnight to 24 hours
// after now.
func DayWindow(now time.Time, loc *time.Location) Window {
	now = now.In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return Window{Start: midnight, End: now.Add(24 * time.Hour), Location: loc}
}

// Occurrences returns every occurrence in the day window for now. Any feed
// failure fails the whole call.
func (c *Calendar) Occurrences(ctx context.Context, now time.Time) ([]model.Occurrence, error) {
	payloads, err := c.fetcher.FetchAll(ctx, c.feeds)
	if err != nil {
		return nil, err
	}

	var events []VEvent
	for _, p := range payloads {
		evs, err := Parse(p)
		if err != nil {
			return nil, fmt.Errorf("ics: parse %s: %w", p.Feed.ID, err)
		}
		events = append(events, evs...)
	}

	return Expand(events, DayWindow(now, c.location))
}
