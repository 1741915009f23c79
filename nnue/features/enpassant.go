package features

import "github.com/hailam/nnue/internal/board"

// EnPassant exposes the en-passant file, flipped for the black
// perspective. The feature has no incremental form: its slice is
// refreshed on every move.
type EnPassant struct{}

func (EnPassant) Name() string                   { return "EnPassant" }
func (EnPassant) HashValue() uint32              { return 0xAB18F5AB }
func (EnPassant) Dimensions() uint32             { return 8 }
func (EnPassant) MaxActiveDimensions() int       { return 1 }
func (EnPassant) RefreshTrigger() RefreshTrigger { return TriggerAlways }

func (EnPassant) AppendActiveIndices(pos *board.Position, perspective board.Color, active *IndexList) {
	ep := pos.EnPassant
	if ep == board.NoSquare {
		return
	}
	active.Add(uint32(OrientSquare(perspective, ep).File()))
}

func (EnPassant) AppendChangedIndices(pos *board.Position, perspective board.Color, dirty *board.DirtyPiece, removed, added *IndexList) {
	panic("features: EnPassant has no incremental update")
}
