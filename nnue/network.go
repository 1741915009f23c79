package nnue

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/hailam/nnue/nnue/common"
	"github.com/hailam/nnue/nnue/features"
	"github.com/hailam/nnue/nnue/layers"
)

// NewFeatureSet builds the input space the network is defined over.
func NewFeatureSet() *features.Composite {
	return features.NewComposite(features.NewHalfKP(features.Friend), features.EnPassant{})
}

// Network bundles the feature transformer with the quantized layer
// stack. The stack shape is fixed: the transformer output feeds two
// hidden affine+ClippedReLU blocks and a single-output affine layer.
type Network struct {
	FT *FeatureTransformer

	Input      *layers.InputSlice
	Hidden1    *layers.AffineTransform
	Hidden1Act *layers.ClippedReLU
	Hidden2    *layers.AffineTransform
	Hidden2Act *layers.ClippedReLU
	Output     *layers.AffineTransform

	Description string

	// scratch buffers for Propagate
	sliced  []uint8
	affine1 []int32
	act1    []uint8
	affine2 []int32
	act2    []uint8
	out     []int32
}

func NewNetwork(fs *features.Composite) *Network {
	n := &Network{FT: NewFeatureTransformer(fs)}
	inputDims := 2 * TransformedFeatureDims
	n.Input = layers.NewInputSlice(inputDims, 0)
	n.Hidden1 = layers.NewAffineTransform(inputDims, HiddenDims,
		n.Input.GetHashValue(), n.Input.StructureString())
	n.Hidden1Act = layers.NewClippedReLU(HiddenDims,
		n.Hidden1.GetHashValue(), n.Hidden1.StructureString())
	n.Hidden2 = layers.NewAffineTransform(HiddenDims, HiddenDims,
		n.Hidden1Act.GetHashValue(), n.Hidden1Act.StructureString())
	n.Hidden2Act = layers.NewClippedReLU(HiddenDims,
		n.Hidden2.GetHashValue(), n.Hidden2.StructureString())
	n.Output = layers.NewAffineTransform(HiddenDims, 1,
		n.Hidden2Act.GetHashValue(), n.Hidden2Act.StructureString())

	n.Description = fmt.Sprintf("Features=%s[%d->%dx2],Network=%s",
		fs.Name(), fs.Dimensions(), TransformedFeatureDims, n.Output.StructureString())

	n.sliced = make([]uint8, inputDims)
	n.affine1 = make([]int32, HiddenDims)
	n.act1 = make([]uint8, HiddenDims)
	n.affine2 = make([]int32, HiddenDims)
	n.act2 = make([]uint8, HiddenDims)
	n.out = make([]int32, 1)
	return n
}

// GetHashValue identifies transformer and stack together; it is the hash
// stored in the file header.
func (n *Network) GetHashValue() uint32 {
	return n.FT.GetHashValue() ^ n.Output.GetHashValue()
}

// StructureString describes the whole network for diagnostics.
func (n *Network) StructureString() string { return n.Description }

// Propagate runs the layer stack over an already-transformed feature
// vector and returns the score in engine units. Not safe for concurrent
// use; the scratch buffers are shared.
func (n *Network) Propagate(transformed []uint8) int {
	n.Input.Propagate(transformed, n.sliced)
	n.Hidden1.Propagate(n.sliced, n.affine1)
	n.Hidden1Act.Propagate(n.affine1, n.act1)
	n.Hidden2.Propagate(n.act1, n.affine2)
	n.Hidden2Act.Propagate(n.affine2, n.act2)
	n.Output.Propagate(n.act2, n.out)
	return int(n.out[0]) / FVScale
}

// ReadParameters reads transformer and stack parameters, checking the
// per-component hash headers.
func (n *Network) ReadParameters(r io.Reader) error {
	if err := readComponent(r, n.FT.GetHashValue(), n.FT.ReadParameters); err != nil {
		return fmt.Errorf("feature transformer: %w", err)
	}
	readStack := func(r io.Reader) error {
		if err := n.Hidden1.ReadParameters(r); err != nil {
			return err
		}
		if err := n.Hidden2.ReadParameters(r); err != nil {
			return err
		}
		return n.Output.ReadParameters(r)
	}
	if err := readComponent(r, n.Output.GetHashValue(), readStack); err != nil {
		return fmt.Errorf("network: %w", err)
	}
	return nil
}

// WriteParameters writes transformer and stack parameters with their
// hash headers.
func (n *Network) WriteParameters(w io.Writer) error {
	if err := common.WriteLittleEndian(w, n.FT.GetHashValue()); err != nil {
		return err
	}
	if err := n.FT.WriteParameters(w); err != nil {
		return err
	}
	if err := common.WriteLittleEndian(w, n.Output.GetHashValue()); err != nil {
		return err
	}
	if err := n.Hidden1.WriteParameters(w); err != nil {
		return err
	}
	if err := n.Hidden2.WriteParameters(w); err != nil {
		return err
	}
	return n.Output.WriteParameters(w)
}

func readComponent(r io.Reader, want uint32, read func(io.Reader) error) error {
	got, err := common.ReadLittleEndian[uint32](r)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("hash mismatch: file has %#08x, want %#08x", got, want)
	}
	return read(r)
}

// Header is the leading portion of a network file.
type Header struct {
	Version     uint32
	Hash        uint32
	Description string
}

func readHeader(r io.Reader) (Header, error) {
	var h Header
	var err error
	if h.Version, err = common.ReadLittleEndian[uint32](r); err != nil {
		return h, err
	}
	if h.Hash, err = common.ReadLittleEndian[uint32](r); err != nil {
		return h, err
	}
	size, err := common.ReadLittleEndian[uint32](r)
	if err != nil {
		return h, err
	}
	desc := make([]byte, size)
	if _, err := io.ReadFull(r, desc); err != nil {
		return h, err
	}
	h.Description = string(desc)
	return h, nil
}

func (n *Network) writeHeader(w io.Writer) error {
	if err := common.WriteLittleEndian(w, Version); err != nil {
		return err
	}
	if err := common.WriteLittleEndian(w, n.GetHashValue()); err != nil {
		return err
	}
	if err := common.WriteLittleEndian(w, uint32(len(n.Description))); err != nil {
		return err
	}
	_, err := w.Write([]byte(n.Description))
	return err
}

// Read loads a full network file: header then parameters. The version
// and hash must match this architecture.
func (n *Network) Read(r io.Reader) error {
	h, err := readHeader(r)
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	if h.Version != Version {
		return fmt.Errorf("version mismatch: file has %#08x, want %#08x", h.Version, Version)
	}
	if h.Hash != n.GetHashValue() {
		return fmt.Errorf("architecture hash mismatch: file has %#08x, want %#08x", h.Hash, n.GetHashValue())
	}
	n.Description = h.Description
	return n.ReadParameters(r)
}

// Write emits a full network file.
func (n *Network) Write(w io.Writer) error {
	if err := n.writeHeader(w); err != nil {
		return err
	}
	return n.WriteParameters(w)
}

// Load reads a network file from disk.
func (n *Network) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := n.Read(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// Save writes a network file to disk.
func (n *Network) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := n.Write(w); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", filename, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Info reads only the header of a network file and reports whether it
// matches this build's architecture, without loading the parameters.
func Info(filename string) (Header, bool, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Header{}, false, err
	}
	defer f.Close()
	h, err := readHeader(bufio.NewReader(f))
	if err != nil {
		return Header{}, false, fmt.Errorf("%s: header: %w", filename, err)
	}
	want := NewNetwork(NewFeatureSet())
	ok := h.Version == Version && h.Hash == want.GetHashValue()
	return h, ok, nil
}

// InitRandom fills the parameters with small random values. Used by
// tests and to seed training runs without a base network.
func (n *Network) InitRandom(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range n.FT.Biases {
		n.FT.Biases[i] = int16(rng.Intn(255) - 127)
	}
	for i := range n.FT.Weights {
		n.FT.Weights[i] = int16(rng.Intn(17) - 8)
	}
	for _, l := range []*layers.AffineTransform{n.Hidden1, n.Hidden2, n.Output} {
		for i := range l.Biases {
			l.Biases[i] = int32(rng.Intn(2048) - 1024)
		}
		for i := 0; i < l.OutputDims; i++ {
			row := l.Weights[i*l.PaddedInputDims : i*l.PaddedInputDims+l.InputDims]
			for j := range row {
				row[j] = int8(rng.Intn(17) - 8)
			}
		}
	}
}
