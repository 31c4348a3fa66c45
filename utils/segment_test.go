package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setanarut/gridops"
)

// quadrantImage has a different colour in each quadrant.
func quadrantImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			var c color.RGBA
			switch {
			case x < w/2 && y < h/2:
				c = color.RGBA{200, 30, 30, 255}
			case y < h/2:
				c = color.RGBA{30, 200, 30, 255}
			case x < w/2:
				c = color.RGBA{30, 30, 200, 255}
			default:
				c = color.RGBA{205, 32, 30, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func assertContiguous(t *testing.T, labels []int, count int) {
	t.Helper()
	seen := make([]bool, count)
	for _, l := range labels {
		require.GreaterOrEqual(t, l, 0)
		require.Less(t, l, count)
		seen[l] = true
	}
	for l, ok := range seen {
		assert.True(t, ok, "label %d has no pixels", l)
	}
}

func TestCompactLabels(t *testing.T) {
	got, n := CompactLabels([]int{7, 7, -1, 3, 7, 3})
	assert.Equal(t, []int{0, 0, 1, 2, 0, 2}, got)
	assert.Equal(t, 3, n)

	got, n = CompactLabels(nil)
	assert.Empty(t, got)
	assert.Zero(t, n)
}

func TestLabelMethod_RoundTrip(t *testing.T) {
	for _, m := range []LabelMethod{LabelMethodSLIC, LabelMethodKMeans, LabelMethodDominantColor} {
		assert.Equal(t, m, ParseLabelMethod(m.String()))
	}
	assert.Equal(t, LabelMethodSLIC, ParseLabelMethod("watershed"))
}

func TestLabelsFromPalette(t *testing.T) {
	img := quadrantImage(4, 4)
	palette := []colorful.Color{
		{R: 0, G: 0, B: 1},
		{R: 1, G: 0, B: 0},
		{R: 0, G: 1, B: 0},
	}
	labels := LabelsFromPalette(img, palette)
	require.Len(t, labels, 16)
	assert.Equal(t, 1, labels[0], "red quadrant")
	assert.Equal(t, 2, labels[3], "green quadrant")
	assert.Equal(t, 0, labels[12], "blue quadrant")
	assert.Equal(t, 1, labels[15], "near-red quadrant")
	assert.Nil(t, LabelsFromPalette(img, nil))
}

func TestSortPaletteByBrightness(t *testing.T) {
	p := []colorful.Color{{R: 1, G: 1, B: 1}, {}, {R: 0.5, G: 0.5, B: 0.5}}
	SortPaletteByBrightness(p)
	assert.Equal(t, []colorful.Color{{}, {R: 0.5, G: 0.5, B: 0.5}, {R: 1, G: 1, B: 1}}, p)
}

func TestSegment_Methods(t *testing.T) {
	img := quadrantImage(32, 32)
	for _, m := range []LabelMethod{LabelMethodSLIC, LabelMethodKMeans, LabelMethodDominantColor} {
		t.Run(m.String(), func(t *testing.T) {
			labels, n := Segment(img, 4, m)
			require.Len(t, labels, 32*32)
			require.Positive(t, n)
			assertContiguous(t, labels, n)
			// Pixels deep inside one quadrant always share a label.
			assert.Equal(t, labels[2*32+2], labels[10*32+10])
		})
	}
}

func TestSLIC_FeedsHierarchy(t *testing.T) {
	img := quadrantImage(40, 40)
	labels, n := SLIC(img, 16)
	assertContiguous(t, labels, n)

	opt := gridops.DefaultOptions()
	opt.Levels = 6
	h, err := gridops.Build(gridops.PixelsFromImage(img), labels, n, opt)
	require.NoError(t, err)

	last := h.Levels[len(h.Levels)-1]
	assert.LessOrEqual(t, last.LabelCount, n)
	// The red and near-red quadrants differ by far less than the threshold,
	// the other quadrants by far more, so at least three groups survive.
	assert.GreaterOrEqual(t, last.LabelCount, 3)

	pixLabels, err := h.PixelLabels(len(h.Levels) - 1)
	require.NoError(t, err)
	assertContiguous(t, pixLabels, last.LabelCount)
	assert.NotEqual(t, pixLabels[0], pixLabels[39], "red and green never merge")

	img2 := LabelImage(pixLabels, last.LabelCount, h.Width, h.Height)
	assert.Equal(t, image.Rect(0, 0, 40, 40), img2.Bounds())
}
