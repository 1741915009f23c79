package trainer

import (
	"math"
	"math/rand"

	"github.com/hailam/nnue/nnue"
	"github.com/hailam/nnue/nnue/layers"
)

const defaultMomentum = 0.9

// Activation range of a quantized layer in float units.
const activationScale = 127.0

// affineTrainer shadows one AffineTransform. The quantization scales
// depend on the layer's place in the stack: hidden layers map float 1.0
// to the fixed-point bias unit (1<<WeightScaleBits)*127, the output
// layer maps float 1.0 to ScoreScale engine points before FVScale is
// divided out.
type affineTrainer struct {
	prev     layerTrainer
	target   *layers.AffineTransform
	isOutput bool
	inDims   int
	outDims  int

	biases     []float64
	weights    []float64
	biasDiff   []float64
	weightDiff []float64
	biasGrad   []float64
	weightGrad []float64
	momentum   float64
	clipped    int

	input     []float64
	output    []float64
	prevGrads []float64
}

func newAffineTrainer(prev layerTrainer, target *layers.AffineTransform, isOutput bool) *affineTrainer {
	in, out := target.InputDims, target.OutputDims
	return &affineTrainer{
		prev:       prev,
		target:     target,
		isOutput:   isOutput,
		inDims:     in,
		outDims:    out,
		biases:     make([]float64, out),
		weights:    make([]float64, out*in),
		biasDiff:   make([]float64, out),
		weightDiff: make([]float64, out*in),
		biasGrad:   make([]float64, out),
		weightGrad: make([]float64, out*in),
		momentum:   defaultMomentum,
	}
}

func (t *affineTrainer) OutputDims() int { return t.outDims }

func (t *affineTrainer) biasScale() float64 {
	if t.isOutput {
		return ScoreScale * nnue.FVScale
	}
	return (1 << layers.WeightScaleBits) * activationScale
}

func (t *affineTrainer) weightScale() float64 {
	return t.biasScale() / activationScale
}

// Initialize draws hidden weights from a fan-in-scaled normal and sets
// each bias so a half-active input lands mid-range. The output layer
// starts at zero: an untrained network evaluates every position as
// equal.
func (t *affineTrainer) Initialize(rng *rand.Rand) {
	t.prev.Initialize(rng)
	clear(t.biasDiff)
	clear(t.weightDiff)
	if t.isOutput {
		clear(t.biases)
		clear(t.weights)
		return
	}
	sigma := 1.0 / math.Sqrt(float64(t.inDims))
	for i := 0; i < t.outDims; i++ {
		sum := 0.0
		for j := 0; j < t.inDims; j++ {
			w := rng.NormFloat64() * sigma
			t.weights[i*t.inDims+j] = w
			sum += w
		}
		t.biases[i] = 0.5 - 0.5*sum
	}
}

func (t *affineTrainer) Propagate(batch []Sample) []float64 {
	t.input = t.prev.Propagate(batch)
	if len(t.output) < len(batch)*t.outDims {
		t.output = make([]float64, len(batch)*t.outDims)
	}
	for b := range batch {
		in := t.input[b*t.inDims : (b+1)*t.inDims]
		for i := 0; i < t.outDims; i++ {
			sum := t.biases[i]
			row := t.weights[i*t.inDims:]
			for j, x := range in {
				sum += row[j] * x
			}
			t.output[b*t.outDims+i] = sum
		}
	}
	return t.output[:len(batch)*t.outDims]
}

func (t *affineTrainer) Backpropagate(grads []float64, learnRate float64) {
	numBatch := len(grads) / t.outDims
	clear(t.biasGrad)
	clear(t.weightGrad)
	if len(t.prevGrads) < numBatch*t.inDims {
		t.prevGrads = make([]float64, numBatch*t.inDims)
	}
	prevGrads := t.prevGrads[:numBatch*t.inDims]
	clear(prevGrads)
	for b := 0; b < numBatch; b++ {
		in := t.input[b*t.inDims : (b+1)*t.inDims]
		pg := prevGrads[b*t.inDims : (b+1)*t.inDims]
		for i := 0; i < t.outDims; i++ {
			g := grads[b*t.outDims+i]
			if g == 0 {
				continue
			}
			t.biasGrad[i] += g
			row := t.weights[i*t.inDims:]
			wg := t.weightGrad[i*t.inDims:]
			for j, x := range in {
				wg[j] += g * x
				pg[j] += g * row[j]
			}
		}
	}
	scale := learnRate / float64(numBatch)
	for i := range t.biases {
		t.biasDiff[i] = t.momentum*t.biasDiff[i] + t.biasGrad[i]
		t.biases[i] -= scale * t.biasDiff[i]
	}
	for i := range t.weights {
		t.weightDiff[i] = t.momentum*t.weightDiff[i] + t.weightGrad[i]
		t.weights[i] -= scale * t.weightDiff[i]
	}
	t.prev.Backpropagate(prevGrads, learnRate)
}

// QuantizeParameters clips the float weights to the int8-representable
// range first, so the float and quantized parameters cannot drift apart
// through repeated saturation.
func (t *affineTrainer) QuantizeParameters() {
	t.prev.QuantizeParameters()
	bScale, wScale := t.biasScale(), t.weightScale()
	maxWeight := math.MaxInt8 / wScale
	t.clipped = 0
	for i, w := range t.weights {
		if w > maxWeight {
			w = maxWeight
			t.clipped++
		} else if w < -maxWeight {
			w = -maxWeight
			t.clipped++
		}
		t.weights[i] = w
	}
	for i := 0; i < t.outDims; i++ {
		t.target.Biases[i] = int32(math.Round(t.biases[i] * bScale))
		for j := 0; j < t.inDims; j++ {
			t.target.Weights[i*t.target.PaddedInputDims+j] =
				int8(math.Round(t.weights[i*t.inDims+j] * wScale))
		}
	}
}

func (t *affineTrainer) DequantizeParameters() {
	t.prev.DequantizeParameters()
	bScale, wScale := t.biasScale(), t.weightScale()
	for i := 0; i < t.outDims; i++ {
		t.biases[i] = float64(t.target.Biases[i]) / bScale
		for j := 0; j < t.inDims; j++ {
			t.weights[i*t.inDims+j] =
				float64(t.target.Weights[i*t.target.PaddedInputDims+j]) / wScale
		}
	}
	clear(t.biasDiff)
	clear(t.weightDiff)
}

// ClippedWeights reports how many weights hit the representable range at
// the last quantization.
func (t *affineTrainer) ClippedWeights() int { return t.clipped }
