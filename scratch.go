package gridops

import "fmt"

// scratch owns the per-level working buffers of one hierarchy build. It is
// sized once for the level-0 label count; later levels only ever have fewer
// labels, so reset reslices without allocating.
type scratch struct {
	capacity int
	n        int
	diffs    []float64 // upper triangle, row-major, see pairIndex
	merged   []bool
	mapping  []int
	queue    pairQueue
}

func pairCount(n int) int { return n * (n - 1) / 2 }

func newScratch(capacity, maxPairs int) (*scratch, error) {
	if maxPairs > 0 && pairCount(capacity) > maxPairs {
		return nil, fmt.Errorf("%d labels need %d pair slots, budget is %d: %w",
			capacity, pairCount(capacity), maxPairs, ErrOutOfMemory)
	}
	return &scratch{
		capacity: capacity,
		diffs:    make([]float64, pairCount(capacity)),
		merged:   make([]bool, capacity),
		mapping:  make([]int, capacity),
	}, nil
}

// reset prepares the buffers for a level with n labels.
func (s *scratch) reset(n int) {
	if n > s.capacity {
		panic(fmt.Sprintf("gridops: scratch reset to %d labels, capacity %d", n, s.capacity))
	}
	s.n = n
	clear(s.merged[:n])
	clear(s.mapping[:n])
	s.queue = s.queue[:0]
}

// pairIndex is the offset of (u,v), u<v, in the packed upper triangle of an
// n×n matrix.
func (s *scratch) pairIndex(u, v int) int {
	return u*(2*s.n-u-1)/2 + (v - u - 1)
}

func (s *scratch) diff(u, v int) float64 {
	return s.diffs[s.pairIndex(u, v)]
}

func (s *scratch) release() {
	s.diffs = nil
	s.merged = nil
	s.mapping = nil
	s.queue = nil
	s.capacity = 0
	s.n = 0
}
