package weather

import (
	"fmt"
	"time"

	appLog "thermalprint/internal/log"
	"thermalprint/internal/model"
	"thermalprint/internal/printer"
)

// DefaultTitle heads the receipt when Report.Title is empty.
const DefaultTitle = "Weather"

// Report is the full weather receipt.
type Report struct {
	Store *Store
	Title string
	Date  time.Time
}

// Segments classifies, resolves and fills the model for snap.
func (r Report) Segments(snap model.WeatherSnapshot) ([]printer.Segment, error) {
	band := Classify(float64(snap.Precipitation))
	m, err := r.Store.Resolve(snap.Icon, band)
	if err != nil {
		return nil, err
	}
	appLog.Debug("weather model resolved",
		"icon", snap.Icon,
		"band", band,
		"requested", m.Requested,
		"key", m.Key,
	)

	title := r.Title
	if title == "" {
		title = DefaultTitle
	}
	if r.Date.IsZero() {
		return nil, fmt.Errorf("weather: report date is not set")
	}

	segs := []printer.Segment{
		printer.Feed(1),
		printer.Line(title, artPage).Styled(printer.Style{Bold: true, Size: printer.SizeLarge}),
		printer.Line(r.Date.Format("2006-01-02"), artPage),
		printer.Feed(1),
	}
	segs = append(segs, Fill(m, snap)...)
	return append(segs, printer.Feed(3)), nil
}
