package utils

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/gridops"
)

func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// SaveLevelImages writes two images per level into dir: the segment means
// (mean_NN.png) and a false-colour label map (labels_NN.png).
func SaveLevelImages(h *gridops.Hierarchy, dir string) error {
	for l := range h.Levels {
		mean, err := h.Render(l)
		if err != nil {
			return err
		}
		if err := SaveImage(mean, filepath.Join(dir, fmt.Sprintf("mean_%02d.png", l))); err != nil {
			return err
		}
		labels, err := h.PixelLabels(l)
		if err != nil {
			return err
		}
		img := LabelImage(labels, h.Levels[l].LabelCount, h.Width, h.Height)
		if err := SaveImage(img, filepath.Join(dir, fmt.Sprintf("labels_%02d.png", l))); err != nil {
			return err
		}
	}
	return nil
}

// LabelImage paints each label with a fixed colour spread around the hue
// circle by the golden angle.
func LabelImage(labels []int, count, w, h int) *image.RGBA {
	palette := make([]color.RGBA, count)
	for i := range palette {
		hue := math.Mod(float64(i)*137.508, 360)
		palette[i] = toRGBA(colorful.Hsv(hue, 0.65, 0.55+0.35*float64(i%3)/2))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, palette[labels[y*w+x]])
		}
	}
	return img
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
