package nnue

import (
	"io"

	"github.com/hailam/nnue/internal/board"
	"github.com/hailam/nnue/nnue/common"
	"github.com/hailam/nnue/nnue/features"
)

// FeatureTransformer is the input layer: a wide sparse affine transform
// whose sums are maintained incrementally in Accumulators, followed by a
// clipped ReLU. Each feature-set slice of the composite owns its own
// accumulation plane so slices with different refresh triggers can be
// refreshed independently; the biases live in slice 0 only.
type FeatureTransformer struct {
	FeatureSet *features.Composite

	Biases  []int16 // TransformedFeatureDims
	Weights []int16 // Dimensions rows of TransformedFeatureDims
}

func NewFeatureTransformer(fs *features.Composite) *FeatureTransformer {
	return &FeatureTransformer{
		FeatureSet: fs,
		Biases:     make([]int16, TransformedFeatureDims),
		Weights:    make([]int16, int(fs.Dimensions())*TransformedFeatureDims),
	}
}

func (t *FeatureTransformer) GetHashValue() uint32 {
	return t.FeatureSet.HashValue() ^ uint32(TransformedFeatureDims*2)
}

func (t *FeatureTransformer) ReadParameters(r io.Reader) error {
	if err := common.ReadLittleEndianSlice(r, t.Biases); err != nil {
		return err
	}
	return common.ReadLittleEndianSlice(r, t.Weights)
}

func (t *FeatureTransformer) WriteParameters(w io.Writer) error {
	if err := common.WriteLittleEndianSlice(w, t.Biases); err != nil {
		return err
	}
	return common.WriteLittleEndianSlice(w, t.Weights)
}

// RefreshSlice recomputes one accumulation plane from scratch.
func (t *FeatureTransformer) RefreshSlice(pos *board.Position, acc *Accumulator, perspective board.Color, slice int) {
	plane := acc.Accumulation[perspective][slice]
	if slice == 0 {
		copy(plane, t.Biases)
	} else {
		for i := range plane {
			plane[i] = 0
		}
	}
	var active features.IndexList
	t.FeatureSet.AppendActiveIndices(pos, perspective, slice, &active)
	for _, index := range active.Values() {
		t.addRow(plane, index)
	}
}

// UpdateSlice derives one accumulation plane from the previous ply's.
// The caller has already established that the slice's trigger did not
// fire for this move.
func (t *FeatureTransformer) UpdateSlice(pos *board.Position, prev, acc *Accumulator, perspective board.Color, dirty *board.DirtyPiece, slice int) {
	plane := acc.Accumulation[perspective][slice]
	copy(plane, prev.Accumulation[perspective][slice])
	var removed, added features.IndexList
	t.FeatureSet.AppendChangedIndices(pos, perspective, dirty, slice, &removed, &added)
	for _, index := range removed.Values() {
		t.subRow(plane, index)
	}
	for _, index := range added.Values() {
		t.addRow(plane, index)
	}
}

func (t *FeatureTransformer) addRow(plane []int16, index uint32) {
	row := t.Weights[int(index)*TransformedFeatureDims:]
	for i := range plane {
		plane[i] += row[i]
	}
}

func (t *FeatureTransformer) subRow(plane []int16, index uint32) {
	row := t.Weights[int(index)*TransformedFeatureDims:]
	for i := range plane {
		plane[i] -= row[i]
	}
}

// Transform sums the slices of each perspective, clips to the activation
// range and writes the side to move's half first.
func (t *FeatureTransformer) Transform(acc *Accumulator, sideToMove board.Color, output []uint8) {
	perspectives := [board.NumColors]board.Color{sideToMove, sideToMove.Other()}
	for p, perspective := range perspectives {
		offset := p * TransformedFeatureDims
		planes := acc.Accumulation[perspective]
		for i := 0; i < TransformedFeatureDims; i++ {
			sum := int32(0)
			for _, plane := range planes {
				sum += int32(plane[i])
			}
			if sum < 0 {
				sum = 0
			} else if sum > 127 {
				sum = 127
			}
			output[offset+i] = uint8(sum)
		}
	}
}
