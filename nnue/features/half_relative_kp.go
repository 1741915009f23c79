package features

import "github.com/hailam/nnue/internal/board"

// Relative coordinates span [-7, +7] on each axis.
const (
	relativeSpan  = 15
	relativePlane = relativeSpan * relativeSpan
	numPieceKinds = (PsEnd - PsHandEnd) / board.NumSquares
)

// HalfRelativeKP encodes each non-king piece by its file and rank offset
// from one king, so the same piece constellation shifted across the
// board activates the same features.
type HalfRelativeKP struct {
	king Side
}

func NewHalfRelativeKP(king Side) HalfRelativeKP { return HalfRelativeKP{king: king} }

func (s HalfRelativeKP) Name() string {
	if s.king == Friend {
		return "HalfRelativeKP(Friend)"
	}
	return "HalfRelativeKP(Enemy)"
}

func (s HalfRelativeKP) HashValue() uint32 {
	h := uint32(0xF9180919)
	if s.king == Friend {
		h ^= 1
	}
	return h
}

func (HalfRelativeKP) Dimensions() uint32 { return numPieceKinds * relativePlane }

func (HalfRelativeKP) MaxActiveDimensions() int { return 30 }

func (s HalfRelativeKP) RefreshTrigger() RefreshTrigger {
	if s.king == Friend {
		return TriggerFriendKingMoved
	}
	return TriggerEnemyKingMoved
}

func (s HalfRelativeKP) kingColor(perspective board.Color) board.Color {
	if s.king == Friend {
		return perspective
	}
	return perspective.Other()
}

// MakeIndex maps a piece-square code to its relative-coordinate feature.
// The code must not be a sentinel (>= PsHandEnd).
func (HalfRelativeKP) MakeIndex(ksq board.Square, code uint32) uint32 {
	kind := (code - PsHandEnd) / uint32(board.NumSquares)
	sq := board.Square((code - PsHandEnd) % uint32(board.NumSquares))
	relFile := uint32(sq.File() - ksq.File() + (relativeSpan-1)/2)
	relRank := uint32(sq.Rank() - ksq.Rank() + (relativeSpan-1)/2)
	return relativePlane*kind + relativeSpan*relFile + relRank
}

func (s HalfRelativeKP) AppendActiveIndices(pos *board.Position, perspective board.Color, active *IndexList) {
	ksq := OrientedKing(pos, perspective, s.kingColor(perspective))
	for bb := pos.Pieces(); bb != 0; {
		sq := bb.PopLSB()
		if code := MakeCode(perspective, pos.PieceOn(sq), sq); code >= PsHandEnd {
			active.Add(s.MakeIndex(ksq, code))
		}
	}
}

// AppendChangedIndices assumes the anchored king did not move; if it did,
// the caller refreshes the slice instead.
func (s HalfRelativeKP) AppendChangedIndices(pos *board.Position, perspective board.Color, dirty *board.DirtyPiece, removed, added *IndexList) {
	ksq := OrientedKing(pos, perspective, s.kingColor(perspective))
	for i := 0; i < dirty.Num; i++ {
		ch := dirty.Changes[i]
		if ch.OldPc != board.NoPiece {
			if code := MakeCode(perspective, ch.OldPc, ch.OldSq); code >= PsHandEnd {
				removed.Add(s.MakeIndex(ksq, code))
			}
		}
		if ch.NewPc != board.NoPiece {
			if code := MakeCode(perspective, ch.NewPc, ch.NewSq); code >= PsHandEnd {
				added.Add(s.MakeIndex(ksq, code))
			}
		}
	}
}

// UnpackIndex is the inverse of MakeIndex up to the relative frame, for
// diagnostics. The absolute king square is not recoverable.
func (HalfRelativeKP) UnpackIndex(index uint32) (kind uint32, relFile, relRank int) {
	kind = index / relativePlane
	rem := index % relativePlane
	return kind, int(rem/relativeSpan) - (relativeSpan-1)/2, int(rem%relativeSpan) - (relativeSpan-1)/2
}
