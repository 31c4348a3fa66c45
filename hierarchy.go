package gridops

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rs/zerolog"
)

type Options struct {
	// Number of hierarchy levels including level 0. Must be > 0.
	Levels int
	// Goroutines used for the pairwise colour differences. Values <= 1 keep
	// everything on the calling goroutine. Output does not depend on it.
	Workers int
	// Select merges from a min-heap of candidate pairs instead of rescanning
	// all pairs per merge. Same merges, faster when many pairs are similar.
	PriorityQueue bool
	// Upper bound on packed pair slots (n*(n-1)/2 for n level-0 labels).
	// Builds that would exceed it fail with ErrOutOfMemory. 0 disables it.
	MaxPairs int
	// Per-level progress. Defaults to a disabled logger.
	Logger zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		Levels:   4,
		Workers:  1,
		MaxPairs: 1 << 25,
		Logger:   zerolog.Nop(),
	}
}

// Level is one rung of the hierarchy. Operator maps the previous level's
// indices (pixels for level 0) to this level's labels.
type Level struct {
	Index      int
	LabelCount int
	Operator   *CoordOperator
	Stats      *SegmentStats
	// Pairs formed by agglomeration; always 0 on level 0.
	Merges int
}

type Hierarchy struct {
	Width, Height int
	Levels        []Level
}

// Build constructs the coarsening hierarchy for a label map over px.
// labels holds one label in [0,nlabels) per pixel. At most opt.Levels
// levels are produced; construction stops early once two consecutive
// levels leave the label count unchanged.
func Build(px Pixels, labels []int, nlabels int, opt Options) (*Hierarchy, error) {
	if opt.Levels <= 0 {
		return nil, fmt.Errorf("levels = %d: %w", opt.Levels, ErrInvalidArgument)
	}
	log := opt.Logger

	stats, op, err := levelZero(px, labels, nlabels)
	if err != nil {
		return nil, err
	}
	h := &Hierarchy{
		Width:  px.W,
		Height: px.H,
		Levels: make([]Level, 0, opt.Levels),
	}
	h.Levels = append(h.Levels, Level{Index: 0, LabelCount: nlabels, Operator: op, Stats: stats})
	log.Debug().Int("level", 0).Int("labels", nlabels).Int("pixels", px.Len()).Msg("level built")
	if opt.Levels == 1 {
		return h, nil
	}

	s, err := newScratch(nlabels, opt.MaxPairs)
	if err != nil {
		return nil, err
	}
	defer s.release()

	stalls := 0
	for l := 1; l < opt.Levels; l++ {
		prevCount := stats.Len()
		s.reset(prevCount)
		computeDifferences(stats, s, opt.Workers)

		var pairs int
		if opt.PriorityQueue {
			pairs = agglomerateQueued(s)
		} else {
			pairs = agglomerate(s)
		}
		op := buildOperator(s.merged, s.mapping, pairs, prevCount)

		stats, err = recombine(stats, op)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", l, err)
		}
		h.Levels = append(h.Levels, Level{
			Index:      l,
			LabelCount: op.NRows,
			Operator:   op,
			Stats:      stats,
			Merges:     pairs,
		})
		log.Debug().Int("level", l).Int("labels", op.NRows).Int("merges", pairs).Msg("level built")

		if op.NRows == prevCount {
			stalls++
		} else {
			stalls = 0
		}
		if stalls == 2 {
			log.Info().Int("level", l).Int("labels", op.NRows).Msg("no further coarsening, stopping early")
			break
		}
	}
	return h, nil
}

// PixelLabels composes the operators of levels 0..level into a per-pixel
// label map for that level.
func (h *Hierarchy) PixelLabels(level int) ([]int, error) {
	if level < 0 || level >= len(h.Levels) {
		return nil, fmt.Errorf("level %d outside [0,%d): %w", level, len(h.Levels), ErrInvalidArgument)
	}
	out := h.Levels[0].Operator.Lookup()
	for l := 1; l <= level; l++ {
		next := h.Levels[l].Operator.Lookup()
		for i, label := range out {
			out[i] = next[label]
		}
	}
	return out, nil
}

// Render paints every pixel with the mean colour of its segment at level.
func (h *Hierarchy) Render(level int) (*image.RGBA, error) {
	labels, err := h.PixelLabels(level)
	if err != nil {
		return nil, err
	}
	means := h.Levels[level].Stats.Means
	img := image.NewRGBA(image.Rect(0, 0, h.Width, h.Height))
	for y := range h.Height {
		for x := range h.Width {
			c := means[labels[y*h.Width+x]]
			img.SetRGBA(x, y, color.RGBA{
				uint8(max(0, min(255, c.R*255))),
				uint8(max(0, min(255, c.G*255))),
				uint8(max(0, min(255, c.B*255))),
				255,
			})
		}
	}
	return img, nil
}
