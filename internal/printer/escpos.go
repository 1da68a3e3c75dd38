package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"golang.org/x/time/rate"

	appLog "thermalprint/internal/log"
)

const (
	esc = 0x1B
	gs  = 0x1D

	// Print mode bits for ESC !.
	modeDoubleHeight = 0x10
	modeDoubleWidth  = 0x20

	// Status bits returned by ESC v 0.
	statusMovement = 0x01
	statusNoPaper  = 0x04
	statusVoltage  = 0x08
	statusTemp     = 0x40

	throttleBurst = 64

	defaultBaudRate      = 19200
	defaultStatusTimeout = 2 * time.Second
)

// ErrStatusTimeout is returned when the printer does not answer a status
// query in time.
var ErrStatusTimeout = errors.New("printer: status timeout")

// Options configures an ESCPOS printer.
type Options struct {
	// BaudRate paces writes to what the serial line can absorb. Zero
	// disables pacing.
	BaudRate int
	// HeatTime is the heating time unit sent on init.
	HeatTime int
	// MaxDots bounds raster image width.
	MaxDots int
	// StatusTimeout bounds the wait for the status byte.
	StatusTimeout time.Duration
}

// Optional capabilities of the device, provided by serial ports.
type (
	readTimeouter interface {
		SetReadTimeout(time.Duration) error
	}
	drainer interface {
		Drain() error
	}
	inputResetter interface {
		ResetInputBuffer() error
	}
)

// ESCPOS drives a serial thermal printer speaking the ESC/POS dialect.
type ESCPOS struct {
	dev     io.ReadWriter
	closer  io.Closer
	limiter *rate.Limiter
	opts    Options

	// Last state sent to the printer; -1 / nil means unknown.
	codePage int
	style    *Style
}

// Open configures the serial port at path as raw 8N1 at opts.BaudRate and
// initializes the printer.
func Open(ctx context.Context, path string, opts Options) (*ESCPOS, error) {
	baud := opts.BaudRate
	if baud <= 0 {
		baud = defaultBaudRate
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("printer: open %s: %w", path, err)
	}
	p := New(port, opts)
	p.closer = port
	if err := p.Reset(ctx); err != nil {
		port.Close()
		return nil, err
	}
	appLog.Info("printer opened", "device", path, "baud_rate", opts.BaudRate)
	return p, nil
}

// New wraps an already-open device. Reset is not called.
func New(dev io.ReadWriter, opts Options) *ESCPOS {
	if opts.MaxDots <= 0 {
		opts.MaxDots = MaxDots
	}
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = defaultStatusTimeout
	}
	p := &ESCPOS{
		dev:      dev,
		opts:     opts,
		codePage: -1,
	}
	if opts.BaudRate > 0 {
		// 8N1 plus an idle bit: ~11 bit times per byte.
		p.limiter = rate.NewLimiter(rate.Limit(float64(opts.BaudRate)/11), throttleBurst)
	}
	return p
}

// Reset sends ESC @ and the heating parameters.
func (p *ESCPOS) Reset(ctx context.Context) error {
	p.codePage = -1
	p.style = nil
	heat := p.opts.HeatTime
	if heat <= 0 {
		heat = 80
	}
	return p.write(ctx, []byte{esc, '@', esc, '7', 11, byte(heat), 40})
}

func (p *ESCPOS) Print(ctx context.Context, segs ...Segment) error {
	for i, seg := range segs {
		if err := p.printOne(ctx, seg); err != nil {
			return fmt.Errorf("printer: segment %d: %w", i, err)
		}
	}
	return nil
}

func (p *ESCPOS) printOne(ctx context.Context, seg Segment) error {
	switch seg.Kind {
	case KindFeed:
		n := seg.Lines
		if n <= 0 {
			n = 1
		}
		return p.write(ctx, []byte{esc, 'd', byte(n)})

	case KindImage:
		r, err := PackRaster(seg.Image, p.opts.MaxDots)
		if err != nil {
			return err
		}
		return p.writeRaster(ctx, r)

	case KindText, KindRaw:
		if err := p.selectCodePage(ctx, seg.CodePage); err != nil {
			return err
		}
		if err := p.applyStyle(ctx, seg.Style); err != nil {
			return err
		}
		body := seg.Raw
		if seg.Kind == KindText {
			body = seg.CodePage.Encode(seg.Text)
		}
		if seg.LineFeed {
			body = append(body[:len(body):len(body)], '\n')
		}
		return p.write(ctx, body)

	default:
		return fmt.Errorf("unknown segment kind %d", seg.Kind)
	}
}

func (p *ESCPOS) selectCodePage(ctx context.Context, cp CodePage) error {
	if p.codePage == int(cp) {
		return nil
	}
	if err := p.write(ctx, []byte{esc, 't', byte(cp)}); err != nil {
		return err
	}
	p.codePage = int(cp)
	return nil
}

func (p *ESCPOS) applyStyle(ctx context.Context, st Style) error {
	if p.style != nil && *p.style == st {
		return nil
	}

	bold := byte(0)
	if st.Bold {
		bold = 1
	}
	mode := byte(0)
	switch st.Size {
	case SizeMedium:
		mode = modeDoubleHeight
	case SizeLarge:
		mode = modeDoubleHeight | modeDoubleWidth
	}

	cmd := []byte{
		esc, 'E', bold,
		esc, '!', mode,
		esc, 'a', byte(st.Justify),
	}
	if err := p.write(ctx, cmd); err != nil {
		return err
	}
	p.style = &st
	return nil
}

func (p *ESCPOS) writeRaster(ctx context.Context, r Raster) error {
	header := []byte{
		gs, 'v', '0', 0,
		byte(r.WidthBytes), byte(r.WidthBytes >> 8),
		byte(r.Height), byte(r.Height >> 8),
	}
	if err := p.write(ctx, header); err != nil {
		return err
	}
	return p.write(ctx, r.Data)
}

// Status queries ESC v 0 and decodes the single status byte. The answer
// must arrive within StatusTimeout.
func (p *ESCPOS) Status(ctx context.Context) (Status, error) {
	if d, ok := p.dev.(drainer); ok {
		if err := d.Drain(); err != nil {
			return Status{}, fmt.Errorf("printer: drain: %w", err)
		}
	}
	if r, ok := p.dev.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			return Status{}, fmt.Errorf("printer: reset input: %w", err)
		}
	}
	if err := p.write(ctx, []byte{esc, 'v', 0}); err != nil {
		return Status{}, err
	}
	b, err := p.readByte(ctx)
	if err != nil {
		return Status{}, err
	}
	return decodeStatus(b), nil
}

// readByte waits for one byte until StatusTimeout or ctx expires. Serial
// ports return (0, nil) when their read timeout elapses.
func (p *ESCPOS) readByte(ctx context.Context) (byte, error) {
	timeout := p.opts.StatusTimeout
	deadline := time.Now().Add(timeout)
	if t, ok := p.dev.(readTimeouter); ok {
		if err := t.SetReadTimeout(min(timeout, 100*time.Millisecond)); err != nil {
			return 0, fmt.Errorf("printer: read timeout: %w", err)
		}
	}

	buf := make([]byte, 1)
	for {
		n, err := p.dev.Read(buf)
		if n == 1 {
			return buf[0], nil
		}
		if err != nil {
			return 0, fmt.Errorf("printer: read status: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if time.Now().After(deadline) {
			return 0, ErrStatusTimeout
		}
		if _, ok := p.dev.(readTimeouter); !ok {
			// Devices without a read timeout may return immediately.
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func decodeStatus(b byte) Status {
	return Status{
		Movement:    b&statusMovement != 0,
		Paper:       b&statusNoPaper == 0,
		Voltage:     b&statusVoltage == 0,
		Temperature: b&statusTemp == 0,
	}
}

// write sends b, pacing it through the limiter in burst-sized chunks.
func (p *ESCPOS) write(ctx context.Context, b []byte) error {
	for len(b) > 0 {
		n := len(b)
		if p.limiter != nil {
			if n > throttleBurst {
				n = throttleBurst
			}
			if err := p.limiter.WaitN(ctx, n); err != nil {
				return fmt.Errorf("printer: throttle: %w", err)
			}
		}
		if _, err := p.dev.Write(b[:n]); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func (p *ESCPOS) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}
