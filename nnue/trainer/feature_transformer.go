package trainer

import (
	"math"
	"math/rand"

	"github.com/hailam/nnue/internal/board"
	"github.com/hailam/nnue/nnue"
)

// Quantization scale of the feature transformer: float 1.0 maps to 127
// for both weights and biases, so the int16 sums line up with the uint8
// activation range after clipping.
const ftScale = 127.0

// featureTransformerTrainer is the terminal link of the chain. Both
// perspective halves share the same float weights and biases; the output
// is the two halves concatenated, side to move first, each passed
// through the clipped activation.
type featureTransformerTrainer struct {
	target   *nnue.FeatureTransformer
	halfDims int
	inDims   int

	biases     []float64
	weights    []float64 // inDims rows of halfDims
	biasDiff   []float64
	weightDiff []float64
	biasGrad   []float64
	weightGrad []float64
	momentum   float64

	batch  []Sample
	preact []float64
	output []float64
}

func newFeatureTransformerTrainer(target *nnue.FeatureTransformer) *featureTransformerTrainer {
	halfDims := nnue.TransformedFeatureDims
	inDims := int(target.FeatureSet.Dimensions())
	return &featureTransformerTrainer{
		target:     target,
		halfDims:   halfDims,
		inDims:     inDims,
		biases:     make([]float64, halfDims),
		weights:    make([]float64, inDims*halfDims),
		biasDiff:   make([]float64, halfDims),
		weightDiff: make([]float64, inDims*halfDims),
		biasGrad:   make([]float64, halfDims),
		weightGrad: make([]float64, inDims*halfDims),
		momentum:   defaultMomentum,
	}
}

func (t *featureTransformerTrainer) OutputDims() int { return 2 * t.halfDims }

// Initialize biases the units to the middle of the activation range so
// the clipped activation starts out responsive on both sides.
func (t *featureTransformerTrainer) Initialize(rng *rand.Rand) {
	for i := range t.biases {
		t.biases[i] = 0.5
	}
	for i := range t.weights {
		t.weights[i] = rng.NormFloat64() * 0.05
	}
	clear(t.biasDiff)
	clear(t.weightDiff)
}

func (t *featureTransformerTrainer) Propagate(batch []Sample) []float64 {
	t.batch = batch
	outDims := t.OutputDims()
	if len(t.output) < len(batch)*outDims {
		t.preact = make([]float64, len(batch)*outDims)
		t.output = make([]float64, len(batch)*outDims)
	}
	for b, s := range batch {
		base := b * outDims
		for p := 0; p < board.NumColors; p++ {
			half := t.preact[base+p*t.halfDims : base+(p+1)*t.halfDims]
			copy(half, t.biases)
			for _, index := range s.Active[p] {
				row := t.weights[int(index)*t.halfDims:]
				for i := range half {
					half[i] += row[i]
				}
			}
		}
		for i := 0; i < outDims; i++ {
			t.output[base+i] = math.Min(math.Max(t.preact[base+i], 0), 1)
		}
	}
	return t.output[:len(batch)*outDims]
}

func (t *featureTransformerTrainer) Backpropagate(grads []float64, learnRate float64) {
	clear(t.biasGrad)
	clear(t.weightGrad)
	outDims := t.OutputDims()
	for b, s := range t.batch {
		base := b * outDims
		for p := 0; p < board.NumColors; p++ {
			for i := 0; i < t.halfDims; i++ {
				o := base + p*t.halfDims + i
				x := t.preact[o]
				if x <= 0 || x >= 1 {
					continue
				}
				g := grads[o]
				t.biasGrad[i] += g
				for _, index := range s.Active[p] {
					t.weightGrad[int(index)*t.halfDims+i] += g
				}
			}
		}
	}
	scale := learnRate / float64(len(t.batch))
	for i := range t.biases {
		t.biasDiff[i] = t.momentum*t.biasDiff[i] + t.biasGrad[i]
		t.biases[i] -= scale * t.biasDiff[i]
	}
	for i := range t.weights {
		t.weightDiff[i] = t.momentum*t.weightDiff[i] + t.weightGrad[i]
		t.weights[i] -= scale * t.weightDiff[i]
	}
}

func (t *featureTransformerTrainer) QuantizeParameters() {
	for i, b := range t.biases {
		t.target.Biases[i] = roundClampInt16(b * ftScale)
	}
	for i, w := range t.weights {
		t.target.Weights[i] = roundClampInt16(w * ftScale)
	}
}

func (t *featureTransformerTrainer) DequantizeParameters() {
	for i, b := range t.target.Biases {
		t.biases[i] = float64(b) / ftScale
	}
	for i, w := range t.target.Weights {
		t.weights[i] = float64(w) / ftScale
	}
	clear(t.biasDiff)
	clear(t.weightDiff)
}

func roundClampInt16(x float64) int16 {
	r := math.Round(x)
	if r > math.MaxInt16 {
		return math.MaxInt16
	}
	if r < math.MinInt16 {
		return math.MinInt16
	}
	return int16(r)
}
