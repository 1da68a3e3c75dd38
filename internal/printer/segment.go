// Package printer models receipt output as an ordered list of segments and
// provides two sinks for them: an ESC/POS serial thermal printer and a
// UTF-8 text preview.
package printer

import (
	"context"
	"image"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// CodePage selects how the printer maps byte values to glyphs. The numeric
// values are the ESC t arguments understood by the printer firmware.
type CodePage byte

const (
	CP437     CodePage = 0
	CP865     CodePage = 5
	ISO8859_1 CodePage = 23
	Thai2     CodePage = 45
)

func (cp CodePage) String() string {
	switch cp {
	case CP437:
		return "CP437"
	case CP865:
		return "CP865"
	case ISO8859_1:
		return "ISO-8859-1"
	case Thai2:
		return "THAI2"
	default:
		return "unknown"
	}
}

// charmap returns the x/text table for cp, or nil when none exists.
func (cp CodePage) charmap() *charmap.Charmap {
	switch cp {
	case CP437:
		return charmap.CodePage437
	case CP865:
		return charmap.CodePage865
	case ISO8859_1:
		return charmap.ISO8859_1
	default:
		return nil
	}
}

// thai2Arrows covers the only THAI2 glyphs the reports use.
var thai2Arrows = map[byte]rune{
	0x8C: '←',
	0x8D: '↑',
	0x8E: '→',
	0x8F: '↓',
}

// Encode converts UTF-8 text into bytes of cp. Runes outside the code page
// become '?'.
func (cp CodePage) Encode(s string) []byte {
	cm := cp.charmap()
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case cm != nil:
			if b, ok := cm.EncodeRune(r); ok {
				out = append(out, b)
				continue
			}
			out = append(out, '?')
		case r < 0x80:
			out = append(out, byte(r))
		default:
			out = append(out, '?')
		}
	}
	return out
}

// CanEncode reports whether r maps to a single byte of cp.
func (cp CodePage) CanEncode(r rune) bool {
	if cm := cp.charmap(); cm != nil {
		_, ok := cm.EncodeRune(r)
		return ok
	}
	return r < 0x80
}

// Printable returns s composed to NFC with whitespace folded to ' ' and
// every control or unencodable rune replaced by '?'. Each rune of the
// result encodes to exactly one byte of cp, so its rune count is its
// printed width.
func (cp CodePage) Printable(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsControl(r) || !cp.CanEncode(r):
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Decode converts raw bytes of cp back to UTF-8.
func (cp CodePage) Decode(raw []byte) string {
	if cp == Thai2 {
		out := make([]rune, 0, len(raw))
		for _, b := range raw {
			if r, ok := thai2Arrows[b]; ok {
				out = append(out, r)
			} else if b < 0x80 {
				out = append(out, rune(b))
			} else {
				out = append(out, '?')
			}
		}
		return string(out)
	}
	cm := cp.charmap()
	if cm == nil {
		return string(raw)
	}
	out := make([]rune, 0, len(raw))
	for _, b := range raw {
		out = append(out, cm.DecodeByte(b))
	}
	return string(out)
}

// Size is the character magnification set with ESC !.
type Size byte

const (
	SizeSmall Size = iota
	SizeMedium
	SizeLarge
)

// Justify is the line alignment (ESC a).
type Justify byte

const (
	JustifyLeft Justify = iota
	JustifyCenter
	JustifyRight
)

// Style is the text formatting in effect for a segment.
type Style struct {
	Bold    bool
	Size    Size
	Justify Justify
}

// Kind tells which Segment fields are meaningful.
type Kind int

const (
	KindText Kind = iota
	KindRaw
	KindImage
	KindFeed
)

// Segment is one unit of printer output. Text segments carry UTF-8 that the
// sink encodes into CodePage; raw segments already hold code-page bytes.
type Segment struct {
	Kind     Kind
	Text     string
	Raw      []byte
	Image    image.Image
	Lines    int
	CodePage CodePage
	Style    Style
	LineFeed bool
}

// Text is a text segment that does not end the line.
func Text(s string, cp CodePage) Segment {
	return Segment{Kind: KindText, Text: s, CodePage: cp}
}

// Line is a text segment followed by a line feed.
func Line(s string, cp CodePage) Segment {
	return Segment{Kind: KindText, Text: s, CodePage: cp, LineFeed: true}
}

// Raw sends b unchanged after selecting cp, optionally ending the line.
func Raw(b []byte, cp CodePage, lineFeed bool) Segment {
	return Segment{Kind: KindRaw, Raw: b, CodePage: cp, LineFeed: lineFeed}
}

// Feed advances the paper by n lines.
func Feed(n int) Segment {
	return Segment{Kind: KindFeed, Lines: n}
}

// Image prints img as a 1bpp raster, cropped to the head width.
func Image(img image.Image) Segment {
	return Segment{Kind: KindImage, Image: img}
}

// Styled returns a copy of s with the given style.
func (s Segment) Styled(st Style) Segment {
	s.Style = st
	return s
}

// String renders the segment as UTF-8 without styling or line feed.
func (s Segment) String() string {
	switch s.Kind {
	case KindText:
		return s.Text
	case KindRaw:
		return s.CodePage.Decode(s.Raw)
	default:
		return ""
	}
}

// Status is the consumable/health state reported by the printer.
type Status struct {
	Paper       bool
	Movement    bool
	Temperature bool
	Voltage     bool
}

// Printer accepts segments in order. Implementations are owned by one run
// at a time.
type Printer interface {
	Print(ctx context.Context, segs ...Segment) error
	Status(ctx context.Context) (Status, error)
	Close() error
}
