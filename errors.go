package gridops

import "errors"

var (
	// ErrInvalidArgument reports malformed input: non-positive sizes or
	// counts, labels outside [0, nlabels), or non-finite pixel values.
	ErrInvalidArgument = errors.New("gridops: invalid argument")

	// ErrDegenerateSegmentation reports a segment with zero pixels, whose
	// mean colour would be a division by zero.
	ErrDegenerateSegmentation = errors.New("gridops: degenerate segmentation")

	// ErrOutOfMemory reports that the per-level scratch buffers would exceed
	// Options.MaxPairs.
	ErrOutOfMemory = errors.New("gridops: scratch allocation exceeds budget")
)
