package board

import "math/bits"

// Bitboard is a 64-bit set of squares, bit n = square n.
type Bitboard uint64

// SquareBB returns the bitboard with only sq set.
func SquareBB(sq Square) Bitboard {
	return Bitboard(1) << sq
}

// LSB returns the lowest set square. Undefined for an empty bitboard.
func (b Bitboard) LSB() Square {
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB clears and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	*b &= *b - 1
	return sq
}

// Count returns the number of set squares.
func (b Bitboard) Count() int {
	return bits.OnesCount64(uint64(b))
}
