package nnue

import "github.com/hailam/nnue/internal/board"

// Accumulator caches the feature transformer's pre-activation sums for
// one ply. It holds one int16 slice per perspective per feature-set
// slice, plus the ply's final score. The flags distinguish "holds valid
// sums" from "holds a valid score"; both start false after a move.
type Accumulator struct {
	// Accumulation[perspective][slice] has TransformedFeatureDims entries.
	Accumulation [board.NumColors][][]int16
	Score        int

	ComputedAccumulation bool
	ComputedScore        bool
}

func newAccumulator(numSlices int) *Accumulator {
	acc := &Accumulator{}
	for c := 0; c < board.NumColors; c++ {
		acc.Accumulation[c] = make([][]int16, numSlices)
		for i := range acc.Accumulation[c] {
			acc.Accumulation[c][i] = make([]int16, TransformedFeatureDims)
		}
	}
	return acc
}
