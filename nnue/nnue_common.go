// Package nnue implements an efficiently-updatable neural network
// evaluator: a feature transformer fed by incremental accumulators, a
// small quantized layer stack, and the versioned binary file format the
// parameters travel in.
package nnue

// Version identifies the network file format.
const Version uint32 = 0x7AF32F16

// FVScale converts the raw output-layer sum to the engine's score units.
const FVScale = 16

// TransformedFeatureDims is the width of one perspective's accumulator
// half; the transformer output is twice this.
const TransformedFeatureDims = 256

// Hidden layer width of the stack behind the transformer.
const HiddenDims = 32

// Debug enables internal contract checks that panic on misuse, such as
// evaluating past the accumulator stack. Off in normal operation.
var Debug = false
