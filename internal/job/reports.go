package job

import (
	"context"
	"time"

	"thermalprint/internal/agenda"
	"thermalprint/internal/forecast"
	"thermalprint/internal/model"
	"thermalprint/internal/printer"
	"thermalprint/internal/weather"
)

// OccurrenceSource yields the calendar occurrences of the day around now.
type OccurrenceSource interface {
	Occurrences(ctx context.Context, now time.Time) ([]model.Occurrence, error)
}

// DailySource yields the daily forecast series.
type DailySource interface {
	Daily(ctx context.Context) ([]forecast.Day, error)
}

// AgendaReport prints the day's events.
type AgendaReport struct {
	Source OccurrenceSource
	Layout agenda.Report
	// PrintEmpty prints header and footer even without events.
	PrintEmpty bool
}

func (a *AgendaReport) Name() string { return "agenda" }

func (a *AgendaReport) Build(ctx context.Context, now time.Time) ([]printer.Segment, error) {
	occ, err := a.Source.Occurrences(ctx, now)
	if err != nil {
		return nil, err
	}
	events := agenda.Normalize(agenda.FromOccurrences(occ))
	if len(events) == 0 && !a.PrintEmpty {
		return nil, nil
	}
	return a.Layout.Segments(events), nil
}

// WeatherReport prints the day's forecast.
type WeatherReport struct {
	Source DailySource
	Store  *weather.Store
	Title  string
}

func (w *WeatherReport) Name() string { return "weather" }

func (w *WeatherReport) Build(ctx context.Context, now time.Time) ([]printer.Segment, error) {
	days, err := w.Source.Daily(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := forecast.Snapshot(days)
	if err != nil {
		return nil, err
	}
	r := weather.Report{Store: w.Store, Title: w.Title, Date: now}
	return r.Segments(snap)
}
