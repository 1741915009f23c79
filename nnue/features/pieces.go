// Package features defines the input feature sets of the network: how a
// position is turned into lists of active feature indices for each
// perspective, and how a move's piece diff is turned into removed/added
// index lists for incremental updates.
package features

import "github.com/hailam/nnue/internal/board"

// Piece-square codes. Every non-king piece on a square maps to a unique
// code in [PsHandEnd, PsEnd); PsNone marks pieces that carry no code
// (kings). The blocks are ordered white-then-black per piece type so a
// perspective swap is a fixed block permutation.
const (
	PsNone    = 0
	PsHandEnd = 1

	PsWPawn   = PsHandEnd
	PsBPawn   = PsWPawn + board.NumSquares
	PsWKnight = PsBPawn + board.NumSquares
	PsBKnight = PsWKnight + board.NumSquares
	PsWBishop = PsBKnight + board.NumSquares
	PsBBishop = PsWBishop + board.NumSquares
	PsWRook   = PsBBishop + board.NumSquares
	PsBRook   = PsWRook + board.NumSquares
	PsWQueen  = PsBRook + board.NumSquares
	PsBQueen  = PsWQueen + board.NumSquares
	PsEnd     = PsBQueen + board.NumSquares
)

// pieceCodeBase[perspective][piece] is the code block base for a piece as
// seen by that perspective, or PsNone for kings.
var pieceCodeBase [board.NumColors][board.NumPieces]uint32

func init() {
	bases := [...]uint32{PsWPawn, PsWKnight, PsWBishop, PsWRook, PsWQueen, PsNone}
	for pt := board.Pawn; pt <= board.King; pt++ {
		base := bases[pt-board.Pawn]
		for c := board.White; c <= board.Black; c++ {
			pc := board.NewPiece(pt, c)
			if base == PsNone {
				pieceCodeBase[board.White][pc] = PsNone
				pieceCodeBase[board.Black][pc] = PsNone
				continue
			}
			// Own pieces take the white block, opposing pieces the
			// black block, regardless of their actual color.
			pieceCodeBase[c][pc] = base
			pieceCodeBase[c.Other()][pc] = base + board.NumSquares
		}
	}
}

// OrientSquare maps sq to the given perspective's frame: black sees the
// board rotated by 180 degrees along the ranks.
func OrientSquare(perspective board.Color, sq board.Square) board.Square {
	if perspective == board.Black {
		return sq.Flip()
	}
	return sq
}

// MakeCode returns the piece-square code of pc on sq as seen by
// perspective, or PsNone if the piece carries no code.
func MakeCode(perspective board.Color, pc board.Piece, sq board.Square) uint32 {
	base := pieceCodeBase[perspective][pc]
	if base == PsNone {
		return PsNone
	}
	return base + uint32(OrientSquare(perspective, sq))
}

// OrientedKing returns the king square of kingColor in the perspective's
// frame.
func OrientedKing(pos *board.Position, perspective, kingColor board.Color) board.Square {
	return OrientSquare(perspective, pos.KingSquare[kingColor])
}
