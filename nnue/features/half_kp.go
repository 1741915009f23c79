package features

import (
	"fmt"

	"github.com/hailam/nnue/internal/board"
)

// HalfKP pairs every non-king piece-square code with the square of one
// king, both in the perspective's frame. Anchoring to the friend king
// gives friend-king-relative features; anchoring to the enemy king gives
// the mirrored set. Either way the anchored king's moves invalidate the
// whole slice.
type HalfKP struct {
	king Side
}

func NewHalfKP(king Side) HalfKP { return HalfKP{king: king} }

func (s HalfKP) Name() string {
	if s.king == Friend {
		return "HalfKP(Friend)"
	}
	return "HalfKP(Enemy)"
}

func (s HalfKP) HashValue() uint32 {
	h := uint32(0x5D69D5B9)
	if s.king == Friend {
		h ^= 1
	}
	return h
}

func (s HalfKP) Dimensions() uint32 { return uint32(board.NumSquares) * PsEnd }

func (s HalfKP) MaxActiveDimensions() int { return 30 }

func (s HalfKP) RefreshTrigger() RefreshTrigger {
	if s.king == Friend {
		return TriggerFriendKingMoved
	}
	return TriggerEnemyKingMoved
}

func (s HalfKP) kingColor(perspective board.Color) board.Color {
	if s.king == Friend {
		return perspective
	}
	return perspective.Other()
}

// MakeIndex combines an oriented king square with a piece-square code.
func (HalfKP) MakeIndex(ksq board.Square, code uint32) uint32 {
	return PsEnd*uint32(ksq) + code
}

func (s HalfKP) AppendActiveIndices(pos *board.Position, perspective board.Color, active *IndexList) {
	ksq := OrientedKing(pos, perspective, s.kingColor(perspective))
	for bb := pos.Pieces(); bb != 0; {
		sq := bb.PopLSB()
		if code := MakeCode(perspective, pos.PieceOn(sq), sq); code != PsNone {
			active.Add(s.MakeIndex(ksq, code))
		}
	}
}

// AppendChangedIndices assumes the anchored king did not move; if it did,
// the caller refreshes the slice instead.
func (s HalfKP) AppendChangedIndices(pos *board.Position, perspective board.Color, dirty *board.DirtyPiece, removed, added *IndexList) {
	ksq := OrientedKing(pos, perspective, s.kingColor(perspective))
	for i := 0; i < dirty.Num; i++ {
		ch := dirty.Changes[i]
		if ch.OldPc != board.NoPiece {
			if code := MakeCode(perspective, ch.OldPc, ch.OldSq); code != PsNone {
				removed.Add(s.MakeIndex(ksq, code))
			}
		}
		if ch.NewPc != board.NoPiece {
			if code := MakeCode(perspective, ch.NewPc, ch.NewSq); code != PsNone {
				added.Add(s.MakeIndex(ksq, code))
			}
		}
	}
}

// UnpackIndex is the inverse of MakeIndex, for diagnostics.
func (HalfKP) UnpackIndex(index uint32) (ksq board.Square, code uint32) {
	return board.Square(index / PsEnd), index % PsEnd
}

func (s HalfKP) String() string { return fmt.Sprintf("%s[%d]", s.Name(), s.Dimensions()) }
