package printer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TextPrinter collapses every code page into a single UTF-8 stream. It is
// used for -render-only runs and the preview server.
type TextPrinter struct {
	w       io.Writer
	columns int
	status  Status

	line    strings.Builder
	justify Justify
}

// NewTextPrinter writes to w, centering or right-aligning lines within
// columns. The reported status always has paper.
func NewTextPrinter(w io.Writer, columns int) *TextPrinter {
	return &TextPrinter{
		w:       w,
		columns: columns,
		status:  Status{Paper: true, Voltage: true, Temperature: true},
	}
}

// SetStatus overrides the status reported by Status.
func (t *TextPrinter) SetStatus(s Status) {
	t.status = s
}

func (t *TextPrinter) Print(_ context.Context, segs ...Segment) error {
	for _, seg := range segs {
		switch seg.Kind {
		case KindFeed:
			if err := t.flush(); err != nil {
				return err
			}
			n := seg.Lines
			if n <= 0 {
				n = 1
			}
			if _, err := io.WriteString(t.w, strings.Repeat("\n", n)); err != nil {
				return err
			}
		case KindImage:
			if err := t.flush(); err != nil {
				return err
			}
			b := seg.Image.Bounds()
			if _, err := fmt.Fprintf(t.w, "[image %dx%d]\n", b.Dx(), b.Dy()); err != nil {
				return err
			}
		default:
			t.line.WriteString(seg.String())
			t.justify = seg.Style.Justify
			if seg.LineFeed {
				if err := t.endLine(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *TextPrinter) endLine() error {
	s := t.line.String()
	t.line.Reset()

	pad := t.columns - runewidth.StringWidth(s)
	switch {
	case pad <= 0:
	case t.justify == JustifyCenter:
		s = strings.Repeat(" ", pad/2) + s
	case t.justify == JustifyRight:
		s = strings.Repeat(" ", pad) + s
	}
	_, err := io.WriteString(t.w, s+"\n")
	return err
}

// flush terminates a pending partial line.
func (t *TextPrinter) flush() error {
	if t.line.Len() == 0 {
		return nil
	}
	return t.endLine()
}

func (t *TextPrinter) Status(_ context.Context) (Status, error) {
	return t.status, nil
}

func (t *TextPrinter) Close() error {
	return t.flush()
}
