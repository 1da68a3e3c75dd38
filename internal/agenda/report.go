package agenda

import (
	"image"

	"thermalprint/internal/model"
	"thermalprint/internal/printer"
)

// Report is the full agenda receipt: header, event table and footer.
type Report struct {
	Table Table

	// HeaderImage is printed above the table; Title is used when it is nil.
	HeaderImage image.Image
	Title       string
	Footer      string
}

// Segments builds the receipt for events, which must already be
// normalized.
func (r Report) Segments(events []model.Event) []printer.Segment {
	segs := []printer.Segment{printer.Feed(1)}
	if r.HeaderImage != nil {
		segs = append(segs, printer.Image(r.HeaderImage))
	} else if r.Title != "" {
		segs = append(segs, printer.Line(r.Title, textPage).
			Styled(printer.Style{Bold: true, Size: printer.SizeLarge, Justify: printer.JustifyCenter}))
	}
	segs = append(segs, printer.Feed(1))

	segs = append(segs, r.Table.Render(events)...)

	segs = append(segs, printer.Feed(1))
	if r.Footer != "" {
		segs = append(segs, printer.Line(r.Footer, textPage).
			Styled(printer.Style{Justify: printer.JustifyCenter}))
	}
	return append(segs, printer.Feed(4))
}
