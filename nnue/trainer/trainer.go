// Package trainer implements offline gradient training for the
// evaluator network. Every quantized layer has a shadow trainer holding
// float parameters and momentum state; trainers wrap each other in the
// same order as the layer stack, and after each update the float
// parameters are re-quantized into the live network.
package trainer

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/nnue/internal/board"
	"github.com/hailam/nnue/nnue"
	"github.com/hailam/nnue/nnue/layers"
)

// Sample is one training position, reduced to what the network consumes:
// the active feature indices of both perspectives (side to move first),
// the teacher score and the game result, both from the side to move's
// point of view.
type Sample struct {
	Active [2][]uint32
	Score  int16
	Result int8
}

// layerTrainer is one link of the shadow chain. Propagate runs the float
// forward pass for a batch and returns outputs in batch-major order;
// Backpropagate consumes gradients in the same layout and passes input
// gradients down the chain. Initialize, QuantizeParameters and
// DequantizeParameters also walk the chain.
type layerTrainer interface {
	OutputDims() int
	Initialize(rng *rand.Rand)
	Propagate(batch []Sample) []float64
	Backpropagate(grads []float64, learnRate float64)
	QuantizeParameters()
	DequantizeParameters()
}

// NetworkTrainer owns the shadow chain for a whole network. The RWMutex
// holds the single-writer rule: Update takes the write lock around the
// backward pass and requantization, while Cost readers evaluate the
// quantized network concurrently under read locks.
type NetworkTrainer struct {
	Net *nnue.Network

	mu      sync.RWMutex
	top     layerTrainer
	ft      *featureTransformerTrainer
	affines []*affineTrainer
}

func NewNetworkTrainer(net *nnue.Network) *NetworkTrainer {
	t := &NetworkTrainer{Net: net}
	t.ft = newFeatureTransformerTrainer(net.FT)
	var chain layerTrainer = newInputSliceTrainer(t.ft, net.Input)
	for _, l := range []struct {
		target   *layers.AffineTransform
		act      *layers.ClippedReLU
		isOutput bool
	}{
		{net.Hidden1, net.Hidden1Act, false},
		{net.Hidden2, net.Hidden2Act, false},
		{net.Output, nil, true},
	} {
		a := newAffineTrainer(chain, l.target, l.isOutput)
		t.affines = append(t.affines, a)
		chain = a
		if l.act != nil {
			chain = newClippedReLUTrainer(chain, l.act)
		}
	}
	t.top = chain
	return t
}

// Initialize draws fresh float parameters and quantizes them into the
// network, overwriting whatever it held.
func (t *NetworkTrainer) Initialize(seed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rng := rand.New(rand.NewSource(seed))
	t.top.Initialize(rng)
	t.top.QuantizeParameters()
}

// Dequantize seeds the float parameters from the network's quantized
// ones, for continuing a run from an existing file.
func (t *NetworkTrainer) Dequantize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.top.DequantizeParameters()
}

// Update runs one gradient step over batch and requantizes the network.
// It returns the mean cost of the batch before the step.
func (t *NetworkTrainer) Update(batch []Sample, loss Loss, learnRate float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.top.Propagate(batch)
	grads := make([]float64, len(batch))
	cost := 0.0
	for i, s := range batch {
		shallow := out[i] * ScoreScale
		cost += loss.Cost(shallow, float64(s.Score), s.Result)
		grads[i] = loss.Grad(shallow, float64(s.Score), s.Result)
	}
	t.top.Backpropagate(grads, learnRate)
	t.top.QuantizeParameters()
	for i, a := range t.affines {
		if n := a.ClippedWeights(); n > 0 {
			log.Printf("affine layer %d: %d weights saturated at quantization", i, n)
		}
	}
	return cost / float64(len(batch))
}

// Cost evaluates the quantized network over samples with the given
// number of workers and returns the mean cost.
func (t *NetworkTrainer) Cost(ctx context.Context, samples []Sample, loss Loss, workers int) (float64, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	if workers < 1 {
		workers = 1
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	sums := make([]float64, workers)
	var cursor atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			buf := newForwardBuffers()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(samples) {
					return nil
				}
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				s := &samples[i]
				shallow := evalSample(t.Net, s, buf)
				sums[w] += loss.Cost(float64(shallow), float64(s.Score), s.Result)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	total := 0.0
	for _, s := range sums {
		total += s
	}
	return total / float64(len(samples)), nil
}

// SaveNetwork writes the quantized network under the read lock, so a
// concurrent Update cannot tear the file.
func (t *NetworkTrainer) SaveNetwork(filename string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Net.Save(filename)
}

// forwardBuffers is per-worker scratch for quantized forward passes.
type forwardBuffers struct {
	transformed []uint8
	affine1     []int32
	act1        []uint8
	affine2     []int32
	act2        []uint8
	out         []int32
}

func newForwardBuffers() *forwardBuffers {
	return &forwardBuffers{
		transformed: make([]uint8, 2*nnue.TransformedFeatureDims),
		affine1:     make([]int32, nnue.HiddenDims),
		act1:        make([]uint8, nnue.HiddenDims),
		affine2:     make([]int32, nnue.HiddenDims),
		act2:        make([]uint8, nnue.HiddenDims),
		out:         make([]int32, 1),
	}
}

// evalSample runs the quantized network over a sample's feature indices.
// It reads only network parameters, so concurrent calls are safe as long
// as no writer is requantizing.
func evalSample(net *nnue.Network, s *Sample, buf *forwardBuffers) int {
	ft := net.FT
	for p := 0; p < board.NumColors; p++ {
		offset := p * nnue.TransformedFeatureDims
		for i := 0; i < nnue.TransformedFeatureDims; i++ {
			sum := int32(ft.Biases[i])
			for _, index := range s.Active[p] {
				sum += int32(ft.Weights[int(index)*nnue.TransformedFeatureDims+i])
			}
			if sum < 0 {
				sum = 0
			} else if sum > 127 {
				sum = 127
			}
			buf.transformed[offset+i] = uint8(sum)
		}
	}
	net.Hidden1.Propagate(buf.transformed, buf.affine1)
	net.Hidden1Act.Propagate(buf.affine1, buf.act1)
	net.Hidden2.Propagate(buf.act1, buf.affine2)
	net.Hidden2Act.Propagate(buf.affine2, buf.act2)
	net.Output.Propagate(buf.act2, buf.out)
	return int(buf.out[0]) / nnue.FVScale
}
