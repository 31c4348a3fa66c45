package gridops

import "container/heap"

// MergeThreshold is the largest squared RGB distance at which two segments
// are merged. It is the squared form of exp(-||mean_u-mean_v||) >= 0.90.
const MergeThreshold = 0.0111

// agglomerate pairs up labels greedily. Each round takes the globally
// smallest difference among labels not yet merged this level; ties go to
// the smallest u, then the smallest v. A label joins at most one pair.
// It returns the number of pairs formed, which is also the first free
// label id for the singletons.
func agglomerate(s *scratch) int {
	curLabel := 0
	for {
		minD := 1e6
		minU, minV := -1, -1
		for u := range s.n {
			if s.merged[u] {
				continue
			}
			row := s.pairIndex(u, u+1)
			for v := u + 1; v < s.n; v++ {
				if s.merged[v] {
					continue
				}
				if d := s.diffs[row+v-u-1]; d < minD {
					minD = d
					minU, minV = u, v
				}
			}
		}
		if minU < 0 || minD > MergeThreshold {
			return curLabel
		}
		s.merged[minU] = true
		s.merged[minV] = true
		s.mapping[minU] = curLabel
		s.mapping[minV] = curLabel
		curLabel++
	}
}

// agglomerateQueued forms the same pairs as agglomerate from a min-heap of
// the candidate pairs under the threshold. Entries touching a label that
// has already been merged are dropped when popped.
func agglomerateQueued(s *scratch) int {
	for u := range s.n {
		row := s.pairIndex(u, u+1)
		for v := u + 1; v < s.n; v++ {
			if d := s.diffs[row+v-u-1]; d <= MergeThreshold {
				s.queue = append(s.queue, pairCandidate{d: d, u: u, v: v})
			}
		}
	}
	heap.Init(&s.queue)

	curLabel := 0
	for s.queue.Len() > 0 {
		c := heap.Pop(&s.queue).(pairCandidate)
		if s.merged[c.u] || s.merged[c.v] {
			continue
		}
		s.merged[c.u] = true
		s.merged[c.v] = true
		s.mapping[c.u] = curLabel
		s.mapping[c.v] = curLabel
		curLabel++
	}
	return curLabel
}

type pairCandidate struct {
	d    float64
	u, v int
}

// pairQueue orders candidates by (d, u, v), the order in which the
// row-major scan would find them.
type pairQueue []pairCandidate

func (q pairQueue) Len() int { return len(q) }

func (q pairQueue) Less(i, j int) bool {
	if q[i].d != q[j].d {
		return q[i].d < q[j].d
	}
	if q[i].u != q[j].u {
		return q[i].u < q[j].u
	}
	return q[i].v < q[j].v
}

func (q pairQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pairQueue) Push(x any) { *q = append(*q, x.(pairCandidate)) }

func (q *pairQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}
