package gridops

import (
	"fmt"
	"image"
	"math"
)

// Pixels is an interleaved colour buffer. Channels is 3 (RGB) or 4 (RGBA);
// only the first three channels are read. Values are expected in [0,1],
// which is the scale MergeThreshold is expressed in.
type Pixels struct {
	W, H     int
	Channels int
	Pix      []float32 // len = W*H*Channels
}

// PixelsFromImage converts img to a 4-channel buffer normalised to [0,1].
func PixelsFromImage(img image.Image) Pixels {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	px := Pixels{
		W:        w,
		H:        h,
		Channels: 4,
		Pix:      make([]float32, w*h*4),
	}
	for y := range h {
		for x := range w {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*w + x) * 4
			px.Pix[off] = float32(r>>8) / 255.0
			px.Pix[off+1] = float32(g>>8) / 255.0
			px.Pix[off+2] = float32(b>>8) / 255.0
			px.Pix[off+3] = float32(a>>8) / 255.0
		}
	}
	return px
}

// Len is the number of pixels.
func (p Pixels) Len() int { return p.W * p.H }

// RGB returns the colour channels of pixel i widened to float64.
func (p Pixels) RGB(i int) (r, g, b float64) {
	off := i * p.Channels
	return float64(p.Pix[off]), float64(p.Pix[off+1]), float64(p.Pix[off+2])
}

func (p Pixels) validate() error {
	if p.W <= 0 || p.H <= 0 {
		return fmt.Errorf("image size %dx%d: %w", p.W, p.H, ErrInvalidArgument)
	}
	if p.Channels != 3 && p.Channels != 4 {
		return fmt.Errorf("channels = %d, want 3 or 4: %w", p.Channels, ErrInvalidArgument)
	}
	if len(p.Pix) != p.W*p.H*p.Channels {
		return fmt.Errorf("pixel buffer len %d, want %d: %w", len(p.Pix), p.W*p.H*p.Channels, ErrInvalidArgument)
	}
	for i := range p.Len() {
		off := i * p.Channels
		for c := range 3 {
			v := float64(p.Pix[off+c])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("pixel %d channel %d is not finite: %w", i, c, ErrInvalidArgument)
			}
		}
	}
	return nil
}
