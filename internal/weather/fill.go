package weather

import (
	"strings"

	"thermalprint/internal/model"
	"thermalprint/internal/printer"
)

// windMarker splits the wind line around the direction arrow.
const windMarker = "&"

const artPage = printer.ISO8859_1

// Fill renders the five content lines of m with snap's values:
//
//	0: printed as is
//	1: {summary}
//	2: {temp_min} {temp_max}
//	3: left & right, arrow in between, right gets {wind_speed}
//	4: {precipitation} {humidity}
func Fill(m Model, snap model.WeatherSnapshot) []printer.Segment {
	l := m.Lines
	left, right, _ := strings.Cut(l[3], windMarker)

	return []printer.Segment{
		printer.Line(l[0], artPage),
		printer.Line(format(l[1], m.Summary), artPage),
		printer.Line(format(l[2], snap.TempMin, snap.TempMax), artPage),
		printer.Text(left, artPage),
		m.Diagonals.WindArrow(snap.WindSpeed, snap.WindBearing).Segment(),
		printer.Line(format(right, snap.WindSpeed), artPage),
		printer.Line(format(l[4], snap.Precipitation, snap.Humidity), artPage),
	}
}
