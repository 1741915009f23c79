// Package common holds the integer I/O helpers and padding rules shared by
// the network layers and the evaluator-side serialization code.
package common

import (
	"encoding/binary"
	"io"
)

// MaxSimdWidth is the widest vector register the weight layout is padded
// for. Padding is part of the wire format, so it is fixed even on scalar
// builds.
const MaxSimdWidth = 32

// CacheLineSize in bytes.
const CacheLineSize = 64

// CeilToMultiple rounds n up to a multiple of base.
func CeilToMultiple(n, base int) int {
	return (n + base - 1) / base * base
}

// ReadLittleEndian reads one fixed-size integer in little-endian order.
func ReadLittleEndian[T any](r io.Reader) (T, error) {
	var result T
	err := binary.Read(r, binary.LittleEndian, &result)
	return result, err
}

// ReadLittleEndianSlice fills out with little-endian integers.
func ReadLittleEndianSlice[T any](r io.Reader, out []T) error {
	return binary.Read(r, binary.LittleEndian, out)
}

// WriteLittleEndian writes one fixed-size integer in little-endian order.
func WriteLittleEndian[T any](w io.Writer, value T) error {
	return binary.Write(w, binary.LittleEndian, value)
}

// WriteLittleEndianSlice writes values in little-endian order.
func WriteLittleEndianSlice[T any](w io.Writer, values []T) error {
	return binary.Write(w, binary.LittleEndian, values)
}
