package features

import "github.com/hailam/nnue/internal/board"

// P is the king-independent feature set: one feature per piece-square
// code. Index 0 (PsNone) is never active.
type P struct{}

func (P) Name() string                   { return "P" }
func (P) HashValue() uint32              { return 0x764CFB5C }
func (P) Dimensions() uint32             { return PsEnd }
func (P) MaxActiveDimensions() int       { return 30 }
func (P) RefreshTrigger() RefreshTrigger { return TriggerNone }

func (P) AppendActiveIndices(pos *board.Position, perspective board.Color, active *IndexList) {
	for bb := pos.Pieces(); bb != 0; {
		sq := bb.PopLSB()
		if code := MakeCode(perspective, pos.PieceOn(sq), sq); code != PsNone {
			active.Add(code)
		}
	}
}

func (P) AppendChangedIndices(pos *board.Position, perspective board.Color, dirty *board.DirtyPiece, removed, added *IndexList) {
	for i := 0; i < dirty.Num; i++ {
		ch := dirty.Changes[i]
		if ch.OldPc != board.NoPiece {
			if code := MakeCode(perspective, ch.OldPc, ch.OldSq); code != PsNone {
				removed.Add(code)
			}
		}
		if ch.NewPc != board.NoPiece {
			if code := MakeCode(perspective, ch.NewPc, ch.NewSq); code != PsNone {
				added.Add(code)
			}
		}
	}
}

// UnpackIndex is the inverse of the index computation, for diagnostics.
func (P) UnpackIndex(index uint32) (code uint32) { return index }
