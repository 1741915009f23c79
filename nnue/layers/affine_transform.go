package layers

import (
	"fmt"
	"io"

	"github.com/hailam/nnue/nnue/common"
)

// AffineTransform computes output = Weights*input + Biases in int32,
// from uint8 activations and int8 weights. Each weight row is padded to
// PaddedInputDims so the file layout is vector-width independent. The
// trainer clips weights at quantization time, so the int32 accumulator
// cannot overflow: 32 pads * 127 * 127 is far below the int32 range.
type AffineTransform struct {
	InputDims       int
	OutputDims      int
	PaddedInputDims int
	PrevHash        uint32
	PrevStructure   string

	Biases  []int32
	Weights []int8 // OutputDims rows of PaddedInputDims
}

func NewAffineTransform(inputDims, outputDims int, prevHash uint32, prevStructure string) *AffineTransform {
	padded := common.CeilToMultiple(inputDims, common.MaxSimdWidth)
	return &AffineTransform{
		InputDims:       inputDims,
		OutputDims:      outputDims,
		PaddedInputDims: padded,
		PrevHash:        prevHash,
		PrevStructure:   prevStructure,
		Biases:          make([]int32, outputDims),
		Weights:         make([]int8, outputDims*padded),
	}
}

func (l *AffineTransform) GetHashValue() uint32 {
	hash := 0xCC03DAE4 + uint32(l.OutputDims)
	hash ^= l.PrevHash >> 1
	hash ^= l.PrevHash << 31
	return hash
}

func (l *AffineTransform) StructureString() string {
	return fmt.Sprintf("AffineTransform[%d<-%d](%s)", l.OutputDims, l.InputDims, l.PrevStructure)
}

func (l *AffineTransform) ReadParameters(r io.Reader) error {
	if err := common.ReadLittleEndianSlice(r, l.Biases); err != nil {
		return err
	}
	return common.ReadLittleEndianSlice(r, l.Weights)
}

func (l *AffineTransform) WriteParameters(w io.Writer) error {
	if err := common.WriteLittleEndianSlice(w, l.Biases); err != nil {
		return err
	}
	return common.WriteLittleEndianSlice(w, l.Weights)
}

func (l *AffineTransform) Propagate(input []uint8, output []int32) {
	for i := 0; i < l.OutputDims; i++ {
		row := l.Weights[i*l.PaddedInputDims:]
		sum := l.Biases[i]
		for j := 0; j < l.InputDims; j++ {
			sum += int32(row[j]) * int32(input[j])
		}
		output[i] = sum
	}
}
