package agenda

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"thermalprint/internal/model"
	"thermalprint/internal/printer"
)

// Box-drawing glyphs in CP437.
const (
	glyphVertical = 0xB3

	glyphHeavyFill        = 0xCD
	glyphHeavyTopLeft     = 0xD5
	glyphHeavyTopRight    = 0xB8
	glyphHeavyBottomLeft  = 0xD4
	glyphHeavyBottomRight = 0xBE

	glyphLightFill  = 0xC4
	glyphLightLeft  = 0xC3
	glyphLightRight = 0xB4
)

const (
	borderPage = printer.CP437
	textPage   = printer.ISO8859_1
)

// DefaultWholeDayLabel replaces the time span of events with start == end.
const DefaultWholeDayLabel = "Whole day"

// Table renders events as one bordered table exactly Columns wide.
// Columns must be at least 8.
type Table struct {
	Columns       int
	WholeDayLabel string
}

// ContentWidth is the printable width inside the borders and padding.
func (t Table) ContentWidth() int {
	return t.Columns - 4
}

// Render emits the table as alternating border (CP437) and text
// (ISO-8859-1) segments. An empty event list yields no segments.
func (t Table) Render(events []model.Event) []printer.Segment {
	var segs []printer.Segment
	for i, ev := range events {
		if i == 0 {
			segs = append(segs, t.border(glyphHeavyTopLeft, glyphHeavyFill, glyphHeavyTopRight))
		} else {
			segs = append(segs, t.border(glyphLightLeft, glyphLightFill, glyphLightRight))
		}
		for _, line := range t.RowLines(ev) {
			segs = append(segs, t.contentLine(line)...)
		}
	}
	if len(events) > 0 {
		segs = append(segs, t.border(glyphHeavyBottomLeft, glyphHeavyFill, glyphHeavyBottomRight))
	}
	return segs
}

// RowLines returns the unpadded content lines of one row: the time label
// followed by the wrapped title. Both are reduced to what the text code
// page can print, so one rune is one byte on paper.
func (t Table) RowLines(ev model.Event) []string {
	width := t.ContentWidth()
	label := truncate(textPage.Printable(t.TimeLabel(ev)), width)
	return append([]string{label}, Wrap(textPage.Printable(ev.Title), width)...)
}

// TimeLabel is "HH:MM - HH:MM", or the whole-day label when the event has
// no span.
func (t Table) TimeLabel(ev model.Event) string {
	if ev.WholeDay() {
		if t.WholeDayLabel == "" {
			return DefaultWholeDayLabel
		}
		return t.WholeDayLabel
	}
	return ev.Start.String() + " - " + ev.End.String()
}

func (t Table) border(left, fill, right byte) printer.Segment {
	b := make([]byte, 0, t.Columns)
	b = append(b, left)
	b = append(b, bytes.Repeat([]byte{fill}, t.Columns-2)...)
	b = append(b, right)
	return printer.Raw(b, borderPage, true)
}

func (t Table) contentLine(s string) []printer.Segment {
	return []printer.Segment{
		printer.Raw([]byte{glyphVertical}, borderPage, false),
		printer.Text(" "+padRight(s, t.ContentWidth())+" ", textPage),
		printer.Raw([]byte{glyphVertical}, borderPage, true),
	}
}

func padRight(s string, width int) string {
	if pad := width - utf8.RuneCountInString(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

// truncate keeps the first width runes of s.
func truncate(s string, width int) string {
	n := 0
	for i := range s {
		if n == width {
			return s[:i]
		}
		n++
	}
	return s
}

// Wrap breaks s greedily on whitespace into lines of at most width runes.
// Words are kept whole unless a single word is longer than width, in which
// case it is cut into width-sized pieces. s is expected to be Printable
// already.
func Wrap(s string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
		curW  int
	)
	width = max(width, 1)
	flush := func() {
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curW = 0
		}
	}

	for _, word := range strings.Fields(s) {
		ww := utf8.RuneCountInString(word)
		switch {
		case curW > 0 && curW+1+ww <= width:
			cur.WriteByte(' ')
			cur.WriteString(word)
			curW += 1 + ww
			continue
		case curW > 0:
			flush()
		}

		for ww > width {
			head := truncate(word, width)
			lines = append(lines, head)
			word = word[len(head):]
			ww -= width
		}
		if ww > 0 {
			cur.WriteString(word)
			curW = ww
		}
	}
	flush()
	return lines
}
