package layers

import (
	"fmt"
	"io"
)

// WeightScaleBits is the fixed-point shift applied after each affine
// layer: activations carry 6 fractional bits relative to the weights.
const WeightScaleBits = 6

// ClippedReLU rescales int32 affine outputs back to the uint8 activation
// range: clamp(x >> WeightScaleBits, 0, 127).
type ClippedReLU struct {
	Dims          int
	PrevHash      uint32
	PrevStructure string
}

func NewClippedReLU(dims int, prevHash uint32, prevStructure string) *ClippedReLU {
	return &ClippedReLU{Dims: dims, PrevHash: prevHash, PrevStructure: prevStructure}
}

func (l *ClippedReLU) GetHashValue() uint32 {
	return 0x538D24C7 + l.PrevHash
}

func (l *ClippedReLU) StructureString() string {
	return fmt.Sprintf("ClippedReLU[%d](%s)", l.Dims, l.PrevStructure)
}

func (l *ClippedReLU) ReadParameters(r io.Reader) error { return nil }

func (l *ClippedReLU) WriteParameters(w io.Writer) error { return nil }

func (l *ClippedReLU) Propagate(input []int32, output []uint8) {
	for i := 0; i < l.Dims; i++ {
		x := input[i] >> WeightScaleBits
		if x < 0 {
			x = 0
		} else if x > 127 {
			x = 127
		}
		output[i] = uint8(x)
	}
}
