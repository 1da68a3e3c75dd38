package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "thermalprint/internal/log"
)

// VEvent is the subset of a calendar VEVENT the agenda needs.
type VEvent struct {
	Feed Feed

	UID      string
	Summary  string
	Location string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time
	// RecurrenceID is set on overrides of a single recurring instance.
	RecurrenceID *time.Time
	// Cancelled is STATUS:CANCELLED, used by overrides to drop an instance.
	Cancelled bool
}

// Parse decodes one ICS payload. Malformed VEVENTs are logged and skipped.
func Parse(p Payload) ([]VEvent, error) {
	if len(p.Body) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(p.Body))
	if err != nil {
		return nil, err
	}

	events := make([]VEvent, 0)
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(p.Feed, comp)
		if err != nil {
			appLog.Warn("ics vevent skipped", "id", p.Feed.ID, "err", err)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parsed", "id", p.Feed.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(feed Feed, ve *ical.VEvent) (VEvent, error) {
	out := VEvent{Feed: feed}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.Start = start

	// DTEND is optional; a missing one means a zero-length event, or one
	// day for all-day events.
	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	} else {
		out.End = start
	}

	if dt := ve.GetProperty(ical.ComponentPropertyDtStart); dt != nil {
		if vs := dt.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
		if !strings.Contains(dt.Value, "T") {
			out.AllDay = true
		}
	}
	if out.AllDay && !out.End.After(out.Start) {
		out.End = out.Start.AddDate(0, 0, 1)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Cancelled = strings.EqualFold(strings.TrimSpace(p.Value), "CANCELLED")
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := propLocation(p, out.Start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			t, err := parseICSTime(part, loc)
			if err != nil {
				appLog.Warn("ics exdate skipped", "uid", out.UID, "value", part, "err", err)
				continue
			}
			out.ExDates = append(out.ExDates, t)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		t, err := parseICSTime(p.Value, propLocation(p, out.Start.Location()))
		if err != nil {
			return out, err
		}
		out.RecurrenceID = &t
	}

	return out, nil
}

// propLocation is the zone named by the property's TZID parameter, or def
// when there is none or it is unknown.
func propLocation(p *ical.IANAProperty, def *time.Location) *time.Location {
	tzid := p.ICalParameters[string(ical.ParameterTzid)]
	if len(tzid) == 0 || tzid[0] == "" {
		return def
	}
	loc, err := time.LoadLocation(strings.Trim(tzid[0], `"`))
	if err != nil {
		appLog.Warn("ics unknown TZID", "tzid", tzid[0], "fallback", def.String())
		return def
	}
	return loc
}

// parseICSTime handles the DATE / DATE-TIME / UTC forms found in EXDATE
// and RECURRENCE-ID values. Floating values are read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
