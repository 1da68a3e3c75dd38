package weather

import (
	"cmp"
	"math"

	"thermalprint/internal/printer"
)

// Glyph is a wind arrow. Cardinal arrows and the no-data mark are raw
// bytes from a graphic code page; diagonals are plain text.
type Glyph struct {
	Text     string
	Raw      []byte
	CodePage printer.CodePage
}

// Graphic reports whether the glyph must be sent on a graphic code page.
func (g Glyph) Graphic() bool {
	return g.Raw != nil
}

// Segment emits the glyph without ending the line.
func (g Glyph) Segment() printer.Segment {
	if g.Graphic() {
		return printer.Raw(g.Raw, g.CodePage, false)
	}
	return printer.Text(g.Text, g.CodePage)
}

var (
	arrowEast  = Glyph{Raw: []byte{0x8E}, CodePage: printer.Thai2}
	arrowNorth = Glyph{Raw: []byte{0x8D}, CodePage: printer.Thai2}
	arrowWest  = Glyph{Raw: []byte{0x8C}, CodePage: printer.Thai2}
	arrowSouth = Glyph{Raw: []byte{0x8F}, CodePage: printer.Thai2}

	// NoWind replaces the arrow when the direction is undefined.
	NoWind = Glyph{Raw: []byte{0xAF}, CodePage: printer.CP865}
)

// Diagonals are the text labels printed for the four diagonal sectors,
// which have no arrow glyph on the printer.
type Diagonals struct {
	NorthEast string `yaml:"ne"`
	NorthWest string `yaml:"nw"`
	SouthWest string `yaml:"sw"`
	SouthEast string `yaml:"se"`
}

// DefaultDiagonals are the French compass abbreviations.
var DefaultDiagonals = Diagonals{NorthEast: "NE", NorthWest: "NO", SouthWest: "SO", SouthEast: "SE"}

type compass int

const (
	east compass = iota
	northEast
	north
	northWest
	west
	southWest
	south
	southEast
)

// windSectors is indexed by floor(bearing / 22.5). The assignment is not
// symmetric around the compass points; it is kept as printed historically.
var windSectors = [16]compass{
	east,
	northEast, northEast,
	north, north,
	northWest, northWest,
	west, west,
	southWest, southWest,
	south, south,
	southEast, southEast,
	east,
}

func (d Diagonals) label(c compass) string {
	switch c {
	case northEast:
		return cmp.Or(d.NorthEast, DefaultDiagonals.NorthEast)
	case northWest:
		return cmp.Or(d.NorthWest, DefaultDiagonals.NorthWest)
	case southWest:
		return cmp.Or(d.SouthWest, DefaultDiagonals.SouthWest)
	default:
		return cmp.Or(d.SouthEast, DefaultDiagonals.SouthEast)
	}
}

func (d Diagonals) glyph(c compass) Glyph {
	switch c {
	case east:
		return arrowEast
	case north:
		return arrowNorth
	case west:
		return arrowWest
	case south:
		return arrowSouth
	default:
		return Glyph{Text: d.label(c), CodePage: printer.ISO8859_1}
	}
}

// Direction maps a bearing in degrees to its arrow. 360 wraps to 0.
// Empty labels fall back to DefaultDiagonals.
func (d Diagonals) Direction(bearing float64) Glyph {
	i := int(math.Floor(bearing/22.5)) % len(windSectors)
	if i < 0 {
		i += len(windSectors)
	}
	return d.glyph(windSectors[i])
}

// WindArrow is Direction, or NoWind when there is no wind to point.
func (d Diagonals) WindArrow(speed int, bearing *float64) Glyph {
	if speed == 0 || bearing == nil {
		return NoWind
	}
	return d.Direction(*bearing)
}

// Direction maps bearing with DefaultDiagonals.
func Direction(bearing float64) Glyph {
	return DefaultDiagonals.Direction(bearing)
}

// WindArrow is Diagonals.WindArrow with DefaultDiagonals.
func WindArrow(speed int, bearing *float64) Glyph {
	return DefaultDiagonals.WindArrow(speed, bearing)
}
