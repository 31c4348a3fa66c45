package utils

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/rs/zerolog/log"
)

// LabelMethod selects how the level-0 label map is produced.
type LabelMethod int

const (
	LabelMethodSLIC LabelMethod = iota
	LabelMethodKMeans
	LabelMethodDominantColor
)

func (m LabelMethod) String() string {
	switch m {
	case LabelMethodKMeans:
		return "kmeans"
	case LabelMethodDominantColor:
		return "dominantcolor"
	default:
		return "slic"
	}
}

// ParseLabelMethod is the inverse of String. Unknown names map to SLIC.
func ParseLabelMethod(s string) LabelMethod {
	switch s {
	case "kmeans":
		return LabelMethodKMeans
	case "dominantcolor":
		return LabelMethodDominantColor
	default:
		return LabelMethodSLIC
	}
}

// Segment produces a level-0 label map with about n segments. The returned
// labels are contiguous, so every label in [0,count) has pixels.
func Segment(img image.Image, n int, method LabelMethod) ([]int, int) {
	switch method {
	case LabelMethodKMeans:
		labels, count := KMeansLabels(img, n)
		if count != 0 {
			return labels, count
		}
		log.Warn().Msg("kmeans produced no labels, falling back to slic")
		return SLIC(img, n)
	case LabelMethodDominantColor:
		return DominantLabels(img, n)
	default:
		return SLIC(img, n)
	}
}

// CompactLabels renumbers labels to 0..count-1 in order of first
// appearance. Negative labels are treated as their own group.
func CompactLabels(labels []int) ([]int, int) {
	remap := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := remap[l]
		if !ok {
			id = len(remap)
			remap[l] = id
		}
		out[i] = id
	}
	return out, len(remap)
}

// LabelsFromPalette assigns each pixel the index of its nearest palette
// colour in Lab space.
func LabelsFromPalette(img image.Image, palette []colorful.Color) []int {
	if len(palette) == 0 {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	labels := make([]int, w*h)
	for y := range h {
		for x := range w {
			c, _ := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			best, bestD := 0, math.MaxFloat64
			for i, p := range palette {
				if d := c.DistanceLab(p); d < bestD {
					best, bestD = i, d
				}
			}
			labels[y*w+x] = best
		}
	}
	return labels
}

// KMeansLabels quantises img to k colours with k-means and labels pixels by
// nearest centre.
func KMeansLabels(img image.Image, k int) ([]int, int) {
	palette := ExtractKMeansPalette(img, k)
	if len(palette) == 0 {
		return nil, 0
	}
	return CompactLabels(LabelsFromPalette(img, palette))
}

// DominantLabels labels pixels by nearest dominant colour. The palette is
// sorted dark to bright first so label order does not depend on the
// dominantcolor ranking.
func DominantLabels(img image.Image, k int) ([]int, int) {
	palette := ExtractDominantPalette(img, k)
	if len(palette) == 0 {
		return nil, 0
	}
	SortPaletteByBrightness(palette)
	return CompactLabels(LabelsFromPalette(img, palette))
}

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette []colorful.Color) {
	luma := func(c colorful.Color) float64 {
		r, g, b := c.LinearRgb()
		return 0.2126*r + 0.7152*g + 0.0722*b
	}
	slices.SortStableFunc(palette, func(a, b colorful.Color) int {
		ya, yb := luma(a), luma(b)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

func ExtractDominantPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	if len(candidates) == 0 {
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}
	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, weightedColor{Col: col.Clamped(), Weight: c.Weight})
	}
	return selectDiverse(weighted, k)
}

func ExtractKMeansPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on large images.
	const maxSamples = 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}
	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, min(k, len(dataset)))
	if err != nil || len(cc) == 0 {
		log.Warn().Err(err).Int("k", k).Msg("kmeans partition failed")
		return nil
	}
	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		weighted = append(weighted, weightedColor{Col: col, Weight: float64(len(c.Observations))})
	}
	return selectDiverse(weighted, k)
}

// selectDiverse greedily picks up to k colours, seeded with the heaviest,
// each next one maximising Lab distance to those already chosen scaled by
// its weight.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	maxW := 0.0
	for i := range cands {
		cands[i].Weight = max(cands[i].Weight, 1e-6)
		maxW = max(maxW, cands[i].Weight)
	}

	selected := make([]bool, len(cands))
	chosen := make([]int, 0, k)
	seed := 0
	for i := range cands {
		if cands[i].Weight > cands[seed].Weight {
			seed = i
		}
	}
	selected[seed] = true
	chosen = append(chosen, seed)

	for len(chosen) < k {
		bestIdx, bestScore := -1, -1.0
		for i := range cands {
			if selected[i] {
				continue
			}
			minD := math.MaxFloat64
			for _, s := range chosen {
				minD = min(minD, cands[i].Col.DistanceLab(cands[s].Col))
			}
			score := minD * (0.55 + 0.45*math.Sqrt(cands[i].Weight/maxW))
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		chosen = append(chosen, bestIdx)
	}

	out := make([]colorful.Color, len(chosen))
	for i, idx := range chosen {
		out[i] = cands[idx].Col
	}
	return out
}
