// Package layers implements the quantized layers of the network stack.
// Each layer knows its output width, contributes to the chained hash that
// identifies the architecture in the network file, and can read and
// write its parameters in the file's little-endian layout.
package layers

import (
	"fmt"
	"io"
)

// InputSlice forwards a contiguous window of the transformed feature
// vector into the layer stack. It has no parameters.
type InputSlice struct {
	OutputDims int
	Offset     int
}

func NewInputSlice(outputDims, offset int) *InputSlice {
	return &InputSlice{OutputDims: outputDims, Offset: offset}
}

func (l *InputSlice) GetHashValue() uint32 {
	return 0xEC42E90D ^ uint32(l.OutputDims) ^ uint32(l.Offset)<<10
}

func (l *InputSlice) StructureString() string {
	return fmt.Sprintf("InputSlice[%d(%d:%d)]", l.OutputDims, l.Offset, l.Offset+l.OutputDims)
}

func (l *InputSlice) ReadParameters(r io.Reader) error { return nil }

func (l *InputSlice) WriteParameters(w io.Writer) error { return nil }

func (l *InputSlice) Propagate(input []uint8, output []uint8) {
	copy(output[:l.OutputDims], input[l.Offset:l.Offset+l.OutputDims])
}
