package printer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// MaxDots is the printable width of a 58mm head.
const MaxDots = 384

// Raster is a packed 1bpp bitmap as expected by GS v 0: rows are
// WidthBytes long, MSB first, 1 = burn.
type Raster struct {
	WidthBytes int
	Height     int
	Data       []byte
}

// PackRaster converts img into a 1bpp raster no wider than maxDots.
// Wider images are cropped around their horizontal center.
//
// Pixel rules:
//   - alpha < 128 is paper
//   - luma Y = 0.299R + 0.587G + 0.114B below 128 is ink
func PackRaster(img image.Image, maxDots int) (Raster, error) {
	if img == nil {
		return Raster{}, fmt.Errorf("raster: nil image")
	}
	if maxDots <= 0 {
		maxDots = MaxDots
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Raster{}, fmt.Errorf("raster: empty image %dx%d", w, h)
	}

	startX := b.Min.X
	if w > maxDots {
		startX += (w - maxDots) / 2
		w = maxDots
	}

	stride := (w + 7) / 8
	data := make([]byte, stride*h)

	for py := 0; py < h; py++ {
		rowOff := py * stride
		for px := 0; px < w; px++ {
			c := color.NRGBAModel.Convert(img.At(startX+px, b.Min.Y+py)).(color.NRGBA)
			if !isInk(c) {
				continue
			}
			data[rowOff+(px>>3)] |= byte(0x80 >> (px & 7))
		}
	}

	return Raster{WidthBytes: stride, Height: h, Data: data}, nil
}

func isInk(c color.NRGBA) bool {
	if c.A < 128 {
		return false
	}
	y := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	return y < 128
}

// LoadPNG reads a PNG header image from disk.
func LoadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("raster: decode %s: %w", path, err)
	}
	return img, nil
}
