package trainer

import (
	"math/rand"

	"github.com/hailam/nnue/nnue/layers"
)

// inputSliceTrainer shadows the InputSlice layer. The slice covers the
// whole transformed vector at offset 0, so it is an identity both ways.
type inputSliceTrainer struct {
	prev   layerTrainer
	target *layers.InputSlice
}

func newInputSliceTrainer(prev layerTrainer, target *layers.InputSlice) *inputSliceTrainer {
	return &inputSliceTrainer{prev: prev, target: target}
}

func (t *inputSliceTrainer) OutputDims() int { return t.target.OutputDims }

func (t *inputSliceTrainer) Initialize(rng *rand.Rand) { t.prev.Initialize(rng) }

func (t *inputSliceTrainer) Propagate(batch []Sample) []float64 {
	return t.prev.Propagate(batch)
}

func (t *inputSliceTrainer) Backpropagate(grads []float64, learnRate float64) {
	t.prev.Backpropagate(grads, learnRate)
}

func (t *inputSliceTrainer) QuantizeParameters() { t.prev.QuantizeParameters() }

func (t *inputSliceTrainer) DequantizeParameters() { t.prev.DequantizeParameters() }
