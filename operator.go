package gridops

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CoordOperator is a coordinate-format sparse assignment matrix of shape
// NRows×NCols. Triplet t maps column (fine index) Cols[t] to row (coarse
// label) Rows[t] with weight Vals[t], which is always 1.
type CoordOperator struct {
	Rows  []int
	Cols  []int
	Vals  []float64
	NRows int
	NCols int
}

func newCoordOperator(nrows, ncols int) *CoordOperator {
	return &CoordOperator{
		Rows:  make([]int, ncols),
		Cols:  make([]int, ncols),
		Vals:  make([]float64, ncols),
		NRows: nrows,
		NCols: ncols,
	}
}

// Len is the number of triplets.
func (op *CoordOperator) Len() int { return len(op.Cols) }

// Validate checks that the operator is a total function from [0,NCols) onto
// the contiguous range [0,NRows) with unit weights.
func (op *CoordOperator) Validate() error {
	if len(op.Rows) != len(op.Cols) || len(op.Vals) != len(op.Cols) {
		return fmt.Errorf("operator arrays have lengths %d/%d/%d: %w", len(op.Rows), len(op.Cols), len(op.Vals), ErrInvalidArgument)
	}
	seenCol := make([]bool, op.NCols)
	seenRow := make([]bool, op.NRows)
	for t := range op.Cols {
		r, c := op.Rows[t], op.Cols[t]
		if c < 0 || c >= op.NCols || r < 0 || r >= op.NRows {
			return fmt.Errorf("triplet %d (%d,%d) outside %dx%d: %w", t, r, c, op.NRows, op.NCols, ErrInvalidArgument)
		}
		if seenCol[c] {
			return fmt.Errorf("column %d assigned twice: %w", c, ErrInvalidArgument)
		}
		if op.Vals[t] != 1.0 {
			return fmt.Errorf("triplet %d has weight %g: %w", t, op.Vals[t], ErrInvalidArgument)
		}
		seenCol[c] = true
		seenRow[r] = true
	}
	for c, ok := range seenCol {
		if !ok {
			return fmt.Errorf("column %d unassigned: %w", c, ErrInvalidArgument)
		}
	}
	for r, ok := range seenRow {
		if !ok {
			return fmt.Errorf("row %d empty: %w", r, ErrDegenerateSegmentation)
		}
	}
	return nil
}

// Lookup returns the coarse label of every fine index.
func (op *CoordOperator) Lookup() []int {
	out := make([]int, op.NCols)
	for t, c := range op.Cols {
		out[c] = op.Rows[t]
	}
	return out
}

// ToDense materialises the operator. Only sensible for label-sized
// operators; a pixel-level operator is NRows×(W*H).
func (op *CoordOperator) ToDense() (*mat.Dense, error) {
	if op.NRows <= 0 || op.NCols <= 0 {
		return nil, fmt.Errorf("operator shape %dx%d: %w", op.NRows, op.NCols, ErrInvalidArgument)
	}
	d := mat.NewDense(op.NRows, op.NCols, nil)
	for t := range op.Cols {
		d.Set(op.Rows[t], op.Cols[t], op.Vals[t])
	}
	return d, nil
}

// Pool restricts fine (NCols×k) to the coarse space by averaging the rows
// of each group, weighting row j by sizes[j]. A nil sizes weights every row
// equally. The result is NRows×k.
func (op *CoordOperator) Pool(fine *mat.Dense, sizes []int) (*mat.Dense, error) {
	r, k := fine.Dims()
	if r != op.NCols {
		return nil, fmt.Errorf("pool input has %d rows, operator has %d columns: %w", r, op.NCols, ErrInvalidArgument)
	}
	if sizes != nil && len(sizes) != op.NCols {
		return nil, fmt.Errorf("pool sizes len %d, want %d: %w", len(sizes), op.NCols, ErrInvalidArgument)
	}
	out := mat.NewDense(op.NRows, k, nil)
	weight := make([]float64, op.NRows)
	for t := range op.Cols {
		row, col := op.Rows[t], op.Cols[t]
		w := op.Vals[t]
		if sizes != nil {
			w *= float64(sizes[col])
		}
		weight[row] += w
		for c := range k {
			out.Set(row, c, out.At(row, c)+w*fine.At(col, c))
		}
	}
	for row, w := range weight {
		if w == 0 {
			return nil, fmt.Errorf("coarse row %d has no weight: %w", row, ErrDegenerateSegmentation)
		}
		for c := range k {
			out.Set(row, c, out.At(row, c)/w)
		}
	}
	return out, nil
}

// buildOperator finishes a level's mapping: paired labels keep the id the
// agglomerator gave them, every unmerged label gets the next free id.
func buildOperator(merged []bool, mapping []int, curLabel, prevLabelCount int) *CoordOperator {
	op := newCoordOperator(0, prevLabelCount)
	for u := range prevLabelCount {
		if merged[u] {
			op.Rows[u] = mapping[u]
		} else {
			op.Rows[u] = curLabel
			curLabel++
		}
		op.Cols[u] = u
		op.Vals[u] = 1.0
	}
	op.NRows = curLabel
	return op
}
