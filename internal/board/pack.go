package board

import (
	"encoding/binary"
	"fmt"
)

// RecordSize is the fixed on-disk size of one training record.
const RecordSize = 44

// Record is one training example as written by the data-generation
// pipeline: a packed board, the search score at that position, the move
// played, the ply count and the eventual game result from the side to
// move's point of view (+1 win, 0 draw, -1 loss).
type Record struct {
	Board   [32]byte // 4-bit piece codes, low nibble = even square
	Side    uint8
	EpFile  uint8 // 0 = none, else file+1
	Castle  uint8
	Score   int16
	Move    uint16
	Ply     uint16
	Result  int8
}

// nibble piece codes: 0 = empty, 1..12 = Piece+1.

// Pack encodes a position and its labels into a Record.
func Pack(p *Position, score int16, move Move, ply uint16, result int8) Record {
	var r Record
	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.Board[sq]
		var code byte
		if pc != NoPiece {
			code = byte(pc) + 1
		}
		if sq&1 == 0 {
			r.Board[sq>>1] |= code
		} else {
			r.Board[sq>>1] |= code << 4
		}
	}
	r.Side = uint8(p.SideToMove)
	if p.EnPassant != NoSquare {
		r.EpFile = uint8(p.EnPassant.File()) + 1
	}
	r.Castle = uint8(p.CastlingRights)
	r.Score = score
	r.Move = uint16(move)
	r.Ply = ply
	r.Result = result
	return r
}

// Unpack replays the record into a fresh Position. Corrupt records return
// an error so the caller can discard the example and continue.
func (r *Record) Unpack() (*Position, error) {
	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1 + int(r.Ply)/2,
	}
	for sq := range pos.Board {
		pos.Board[sq] = NoPiece
	}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare

	for sq := Square(0); sq < NumSquares; sq++ {
		code := r.Board[sq>>1]
		if sq&1 == 0 {
			code &= 0x0F
		} else {
			code >>= 4
		}
		if code == 0 {
			continue
		}
		if code > NumPieces {
			return nil, fmt.Errorf("packed board: bad piece code %d on %v", code, sq)
		}
		pos.setPiece(Piece(code-1), sq)
	}
	if pos.KingSquare[White] == NoSquare || pos.KingSquare[Black] == NoSquare {
		return nil, fmt.Errorf("packed board: missing king")
	}
	if r.Side > 1 {
		return nil, fmt.Errorf("packed board: bad side %d", r.Side)
	}
	pos.SideToMove = Color(r.Side)
	if r.EpFile > 0 {
		if r.EpFile > 8 {
			return nil, fmt.Errorf("packed board: bad ep file %d", r.EpFile)
		}
		rank := 5
		if pos.SideToMove == Black {
			rank = 2
		}
		pos.EnPassant = NewSquare(int(r.EpFile-1), rank)
	}
	pos.CastlingRights = CastlingRights(r.Castle) & AllCastling
	return pos, nil
}

// MarshalBinary encodes the record into its RecordSize byte layout.
func (r *Record) MarshalBinary() []byte {
	b := make([]byte, RecordSize)
	copy(b[0:32], r.Board[:])
	b[32] = r.Side
	b[33] = r.EpFile
	b[34] = r.Castle
	// b[35] is padding
	binary.LittleEndian.PutUint16(b[36:], uint16(r.Score))
	binary.LittleEndian.PutUint16(b[38:], r.Move)
	binary.LittleEndian.PutUint16(b[40:], r.Ply)
	b[42] = byte(r.Result)
	// b[43] is padding
	return b
}

// UnmarshalBinary decodes a RecordSize byte slice.
func (r *Record) UnmarshalBinary(b []byte) error {
	if len(b) < RecordSize {
		return fmt.Errorf("record: short buffer (%d bytes)", len(b))
	}
	copy(r.Board[:], b[0:32])
	r.Side = b[32]
	r.EpFile = b[33]
	r.Castle = b[34]
	r.Score = int16(binary.LittleEndian.Uint16(b[36:]))
	r.Move = binary.LittleEndian.Uint16(b[38:])
	r.Ply = binary.LittleEndian.Uint16(b[40:])
	r.Result = int8(b[42])
	return nil
}
