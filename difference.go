package gridops

import "sync"

// computeDifferences fills s.diffs with the squared RGB distance of every
// pair u<v. Channels are summed in R,G,B order. With workers > 1, rows are
// striped across goroutines; every cell is still written by exactly one
// goroutine with the same arithmetic, so the result does not depend on
// the worker count.
func computeDifferences(stats *SegmentStats, s *scratch, workers int) {
	n := stats.Len()
	if workers <= 1 || n < 2*workers {
		for u := range n {
			differenceRow(stats, s, u)
		}
		return
	}
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(first int) {
			defer wg.Done()
			for u := first; u < n; u += workers {
				differenceRow(stats, s, u)
			}
		}(w)
	}
	wg.Wait()
}

func differenceRow(stats *SegmentStats, s *scratch, u int) {
	mu := stats.Means[u]
	row := s.pairIndex(u, u+1)
	for v := u + 1; v < stats.Len(); v++ {
		mv := stats.Means[v]
		dr := mu.R - mv.R
		dg := mu.G - mv.G
		db := mu.B - mv.B
		d := dr * dr
		d += dg * dg
		d += db * db
		s.diffs[row+v-u-1] = d
	}
}
