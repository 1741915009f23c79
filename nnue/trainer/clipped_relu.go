package trainer

import (
	"math/rand"

	"github.com/hailam/nnue/nnue/layers"
)

// clippedReLUTrainer shadows a ClippedReLU layer: clamp to [0,1] in
// float units, with a pass-through gradient only inside the open
// interval.
type clippedReLUTrainer struct {
	prev   layerTrainer
	target *layers.ClippedReLU
	dims   int

	input     []float64
	output    []float64
	prevGrads []float64
}

func newClippedReLUTrainer(prev layerTrainer, target *layers.ClippedReLU) *clippedReLUTrainer {
	return &clippedReLUTrainer{prev: prev, target: target, dims: target.Dims}
}

func (t *clippedReLUTrainer) OutputDims() int { return t.dims }

func (t *clippedReLUTrainer) Initialize(rng *rand.Rand) { t.prev.Initialize(rng) }

func (t *clippedReLUTrainer) Propagate(batch []Sample) []float64 {
	t.input = t.prev.Propagate(batch)
	if len(t.output) < len(t.input) {
		t.output = make([]float64, len(t.input))
	}
	for i, x := range t.input {
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		t.output[i] = x
	}
	return t.output[:len(t.input)]
}

func (t *clippedReLUTrainer) Backpropagate(grads []float64, learnRate float64) {
	if len(t.prevGrads) < len(grads) {
		t.prevGrads = make([]float64, len(grads))
	}
	prevGrads := t.prevGrads[:len(grads)]
	for i, g := range grads {
		if x := t.input[i]; x <= 0 || x >= 1 {
			g = 0
		}
		prevGrads[i] = g
	}
	t.prev.Backpropagate(prevGrads, learnRate)
}

func (t *clippedReLUTrainer) QuantizeParameters() { t.prev.QuantizeParameters() }

func (t *clippedReLUTrainer) DequantizeParameters() { t.prev.DequantizeParameters() }
