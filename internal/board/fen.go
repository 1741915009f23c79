package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string into a Position.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN %q: need at least 4 fields", fen)
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	for sq := range pos.Board {
		pos.Board[sq] = NoPiece
	}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare

	// Piece placement, rank 8 first.
	rank, file := 7, 0
	for i := 0; i < len(parts[0]); i++ {
		ch := parts[0][i]
		switch {
		case ch == '/':
			rank--
			file = 0
		case ch >= '1' && ch <= '8':
			file += int(ch - '0')
		default:
			pc := PieceFromChar(ch)
			if pc == NoPiece || rank < 0 || file > 7 {
				return nil, fmt.Errorf("invalid FEN %q: bad placement", fen)
			}
			pos.setPiece(pc, NewSquare(file, rank))
			file++
		}
	}
	if pos.KingSquare[White] == NoSquare || pos.KingSquare[Black] == NoSquare {
		return nil, fmt.Errorf("invalid FEN %q: missing king", fen)
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid FEN %q: side to move", fen)
	}

	for i := 0; i < len(parts[2]); i++ {
		switch parts[2][i] {
		case 'K':
			pos.CastlingRights |= WhiteKingSide
		case 'Q':
			pos.CastlingRights |= WhiteQueenSide
		case 'k':
			pos.CastlingRights |= BlackKingSide
		case 'q':
			pos.CastlingRights |= BlackQueenSide
		case '-':
		default:
			return nil, fmt.Errorf("invalid FEN %q: castling rights", fen)
		}
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid FEN %q: en passant", fen)
		}
		pos.EnPassant = sq
	}

	if len(parts) > 4 {
		if n, err := strconv.Atoi(parts[4]); err == nil {
			pos.HalfMoveClock = n
		}
	}
	if len(parts) > 5 {
		if n, err := strconv.Atoi(parts[5]); err == nil {
			pos.FullMoveNumber = n
		}
	}
	return pos, nil
}

// FEN returns the FEN string for the position.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.Board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pc.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	stm := "w"
	if p.SideToMove == Black {
		stm = "b"
	}
	return fmt.Sprintf("%s %s %s %s %d %d",
		sb.String(), stm, p.CastlingRights, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)
}
