package gridops

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
)

// SegmentStats holds the mean colour and pixel count of every label at one
// level. Means are in R,G,B of [0,1] scale; Sizes are always positive.
type SegmentStats struct {
	Means []colorful.Color
	Sizes []int
}

// Len is the number of labels.
func (s *SegmentStats) Len() int { return len(s.Sizes) }

// MeansMatrix returns the means as a Len()×3 matrix, one row per label.
func (s *SegmentStats) MeansMatrix() *mat.Dense {
	m := mat.NewDense(s.Len(), 3, nil)
	raw := m.RawMatrix()
	for i, c := range s.Means {
		row := i * raw.Stride
		raw.Data[row] = c.R
		raw.Data[row+1] = c.G
		raw.Data[row+2] = c.B
	}
	return m
}

type accumulator struct {
	r, g, b float64
	count   int
}

func (a *accumulator) mean() colorful.Color {
	c := float64(a.count)
	return colorful.Color{R: a.r / c, G: a.g / c, B: a.b / c}
}

// levelZero accumulates per-label sums in a single pass over the pixels and
// emits the identity assignment pixel -> label alongside.
func levelZero(px Pixels, labels []int, nlabels int) (*SegmentStats, *CoordOperator, error) {
	if nlabels <= 0 {
		return nil, nil, fmt.Errorf("nlabels = %d: %w", nlabels, ErrInvalidArgument)
	}
	if err := px.validate(); err != nil {
		return nil, nil, err
	}
	numpix := px.Len()
	if len(labels) != numpix {
		return nil, nil, fmt.Errorf("label map len %d, want %d: %w", len(labels), numpix, ErrInvalidArgument)
	}

	acc := make([]accumulator, nlabels)
	op := newCoordOperator(nlabels, numpix)
	for u, label := range labels {
		if label < 0 || label >= nlabels {
			return nil, nil, fmt.Errorf("pixel %d has label %d outside [0,%d): %w", u, label, nlabels, ErrInvalidArgument)
		}
		r, g, b := px.RGB(u)
		acc[label].r += r
		acc[label].g += g
		acc[label].b += b
		acc[label].count++
		op.Rows[u] = label
		op.Cols[u] = u
		op.Vals[u] = 1.0
	}
	stats, err := statsFromAccumulators(acc)
	if err != nil {
		return nil, nil, err
	}
	return stats, op, nil
}

// recombine derives the stats of the coarse level from the fine level and
// the operator that groups them. Each coarse mean is the count-weighted
// average of its members, accumulated in fine-label order.
func recombine(fine *SegmentStats, op *CoordOperator) (*SegmentStats, error) {
	acc := make([]accumulator, op.NRows)
	for t, u := range op.Cols {
		a := &acc[op.Rows[t]]
		n := fine.Sizes[u]
		w := float64(n)
		a.r += w * fine.Means[u].R
		a.g += w * fine.Means[u].G
		a.b += w * fine.Means[u].B
		a.count += n
	}
	return statsFromAccumulators(acc)
}

func statsFromAccumulators(acc []accumulator) (*SegmentStats, error) {
	stats := &SegmentStats{
		Means: make([]colorful.Color, len(acc)),
		Sizes: make([]int, len(acc)),
	}
	for i := range acc {
		if acc[i].count == 0 {
			return nil, fmt.Errorf("label %d has no pixels: %w", i, ErrDegenerateSegmentation)
		}
		stats.Means[i] = acc[i].mean()
		stats.Sizes[i] = acc[i].count
	}
	return stats, nil
}
