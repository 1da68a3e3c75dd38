package printer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice records writes and replays a canned status byte.
type fakeDevice struct {
	out    bytes.Buffer
	status []byte
}

func (d *fakeDevice) Write(b []byte) (int, error) { return d.out.Write(b) }

func (d *fakeDevice) Read(b []byte) (int, error) {
	n := copy(b, d.status)
	d.status = d.status[n:]
	return n, nil
}

func TestCodePageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cp   CodePage
		raw  []byte
		want string
	}{
		{"cp437 heavy corner", CP437, []byte{0xD5, 0xCD, 0xB8}, "╒═╕"},
		{"cp437 light separator", CP437, []byte{0xC3, 0xC4, 0xB4}, "├─┤"},
		{"thai2 arrows", Thai2, []byte{0x8C, 0x8D, 0x8E, 0x8F}, "←↑→↓"},
		{"latin1 accents", ISO8859_1, []byte{'c', 0xE9}, "cé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cp.Decode(tt.raw))
		})
	}
}

func TestEncodeReplacesUnsupportedRunes(t *testing.T) {
	assert.Equal(t, []byte{'R', 0xE9, 'u', '?'}, ISO8859_1.Encode("Réu☃"))
	assert.Equal(t, []byte("NE?"), Thai2.Encode("NE→"))
}

func TestESCPOSPrintSwitchesCodePagesOnlyWhenNeeded(t *testing.T) {
	dev := &fakeDevice{}
	p := New(dev, Options{})

	err := p.Print(context.Background(),
		Raw([]byte{0xB3}, CP437, false),
		Text(" Dentist ", ISO8859_1),
		Raw([]byte{0xB3}, CP437, true),
	)
	require.NoError(t, err)

	style := []byte{esc, 'E', 0, esc, '!', 0, esc, 'a', 0}
	var want []byte
	want = append(want, esc, 't', byte(CP437))
	want = append(want, style...)
	want = append(want, 0xB3)
	want = append(want, esc, 't', byte(ISO8859_1))
	want = append(want, []byte(" Dentist ")...)
	want = append(want, esc, 't', byte(CP437))
	want = append(want, 0xB3, '\n')
	assert.Equal(t, want, dev.out.Bytes())
}

func TestESCPOSStyleAndFeed(t *testing.T) {
	dev := &fakeDevice{}
	p := New(dev, Options{})

	err := p.Print(context.Background(),
		Line("Weather", ISO8859_1).Styled(Style{Bold: true, Size: SizeLarge}),
		Feed(3),
	)
	require.NoError(t, err)

	out := dev.out.Bytes()
	assert.True(t, bytes.Contains(out, []byte{esc, 'E', 1, esc, '!', modeDoubleHeight | modeDoubleWidth}))
	assert.True(t, bytes.HasSuffix(out, []byte("Weather\n\x1bd\x03")))
}

func TestESCPOSStatus(t *testing.T) {
	tests := []struct {
		name  string
		b     byte
		paper bool
	}{
		{"ready", 0x00, true},
		{"paper out", statusNoPaper, false},
		{"paper out while moving", statusNoPaper | statusMovement, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{status: []byte{tt.b}}
			st, err := New(dev, Options{}).Status(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.paper, st.Paper)
			assert.Equal(t, []byte{esc, 'v', 0}, dev.out.Bytes())
		})
	}
}

func TestESCPOSStatusTimesOut(t *testing.T) {
	dev := &fakeDevice{}
	start := time.Now()
	_, err := New(dev, Options{StatusTimeout: 30 * time.Millisecond}).Status(context.Background())
	assert.ErrorIs(t, err, ErrStatusTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

type brokenDevice struct{ fakeDevice }

func (*brokenDevice) Read([]byte) (int, error) { return 0, errors.New("port gone") }

func TestESCPOSStatusReadError(t *testing.T) {
	_, err := New(&brokenDevice{}, Options{}).Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port gone")
}

// serialDevice mimics a serial port: reads time out with (0, nil) until the
// answer arrives.
type serialDevice struct {
	fakeDevice
	drained     bool
	inputReset  bool
	readTimeout time.Duration
	emptyReads  int
}

func (d *serialDevice) Drain() error { d.drained = true; return nil }

func (d *serialDevice) ResetInputBuffer() error { d.inputReset = true; return nil }

func (d *serialDevice) SetReadTimeout(t time.Duration) error { d.readTimeout = t; return nil }

func (d *serialDevice) Read(b []byte) (int, error) {
	if d.emptyReads > 0 {
		d.emptyReads--
		return 0, nil
	}
	return d.fakeDevice.Read(b)
}

func TestESCPOSStatusOnSerialPort(t *testing.T) {
	dev := &serialDevice{fakeDevice: fakeDevice{status: []byte{statusNoPaper}}, emptyReads: 2}

	st, err := New(dev, Options{}).Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Paper)
	assert.True(t, dev.drained)
	assert.True(t, dev.inputReset)
	assert.Equal(t, 100*time.Millisecond, dev.readTimeout)
}

func TestESCPOSThrottledWriteDeliversEverything(t *testing.T) {
	dev := &fakeDevice{}
	p := New(dev, Options{BaudRate: 115200})

	payload := bytes.Repeat([]byte{'x'}, 3*throttleBurst+5)
	require.NoError(t, p.write(context.Background(), payload))
	assert.Equal(t, payload, dev.out.Bytes())
}

func TestPackRaster(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 2))
	img.Set(0, 0, color.Black)
	img.Set(9, 1, color.Black)
	img.Set(1, 0, color.White)

	r, err := PackRaster(img, MaxDots)
	require.NoError(t, err)
	assert.Equal(t, 2, r.WidthBytes)
	assert.Equal(t, 2, r.Height)
	assert.Equal(t, []byte{0x80, 0x00, 0x00, 0x40}, r.Data)
}

func TestPackRasterCropsWideImages(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 1))
	img.Set(10, 0, color.Black)

	r, err := PackRaster(img, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, r.WidthBytes)
	// Crop starts at x=6, so x=10 lands on bit 4.
	assert.Equal(t, []byte{0x08}, r.Data)
}

func TestTextPrinterCollapsesChannels(t *testing.T) {
	var buf bytes.Buffer
	p := NewTextPrinter(&buf, 12)

	err := p.Print(context.Background(),
		Raw([]byte{0xB3}, CP437, false),
		Text(" hi ", ISO8859_1),
		Raw([]byte{0xB3}, CP437, true),
		Line("mid", ISO8859_1).Styled(Style{Justify: JustifyCenter}),
		Feed(1),
	)
	require.NoError(t, err)
	assert.Equal(t, "│ hi │\n    mid\n\n", buf.String())

	st, err := p.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Paper)
}
