package features

import (
	"math/bits"
	"strings"

	"github.com/hailam/nnue/internal/board"
)

// Side selects which king a king-relative feature set is anchored to.
type Side int

const (
	Friend Side = iota
	Enemy
)

// RefreshTrigger names the event that invalidates a feature set's
// accumulator slice and forces a full recomputation instead of an
// incremental update.
type RefreshTrigger int

const (
	// TriggerNone: the slice is always updatable incrementally.
	TriggerNone RefreshTrigger = iota
	// TriggerFriendKingMoved: refresh when the perspective's own king moves.
	TriggerFriendKingMoved
	// TriggerEnemyKingMoved: refresh when the opposing king moves.
	TriggerEnemyKingMoved
	// TriggerAlways: refresh on every move.
	TriggerAlways
)

// Set is one input feature set. A set reports its identity (name, hash,
// dimensions) and converts positions and move diffs into index lists for
// a given perspective. Indices are local to the set; Composite applies
// the offsets.
type Set interface {
	Name() string
	HashValue() uint32
	Dimensions() uint32
	MaxActiveDimensions() int
	RefreshTrigger() RefreshTrigger
	AppendActiveIndices(pos *board.Position, perspective board.Color, active *IndexList)
	AppendChangedIndices(pos *board.Position, perspective board.Color, dirty *board.DirtyPiece, removed, added *IndexList)
}

// RequiresRefresh reports whether dirty invalidates a slice with the
// given trigger for the given perspective. A nil dirty stands for an
// event with no reconstructible diff (null move, new root) and always
// forces a refresh.
func RequiresRefresh(trigger RefreshTrigger, perspective board.Color, dirty *board.DirtyPiece) bool {
	if dirty == nil || trigger == TriggerAlways {
		return true
	}
	var king board.Piece
	switch trigger {
	case TriggerNone:
		return false
	case TriggerFriendKingMoved:
		king = board.NewPiece(board.King, perspective)
	case TriggerEnemyKingMoved:
		king = board.NewPiece(board.King, perspective.Other())
	}
	for i := 0; i < dirty.Num; i++ {
		if dirty.Changes[i].OldPc == king || dirty.Changes[i].NewPc == king {
			return true
		}
	}
	return false
}

// Composite concatenates feature sets into one input space. Each member
// set owns a contiguous index range and one accumulator slice; the
// composite hash folds the member hashes so any change of set choice or
// order changes the network file identity.
type Composite struct {
	sets    []Set
	offsets []uint32
	dims    uint32
	hash    uint32
	name    string
}

func NewComposite(sets ...Set) *Composite {
	c := &Composite{sets: sets, offsets: make([]uint32, len(sets))}
	names := make([]string, len(sets))
	for i, s := range sets {
		c.offsets[i] = c.dims
		c.dims += s.Dimensions()
		c.hash ^= bits.RotateLeft32(s.HashValue(), i)
		names[i] = s.Name()
	}
	c.name = strings.Join(names, "+")
	return c
}

func (c *Composite) Name() string       { return c.name }
func (c *Composite) HashValue() uint32  { return c.hash }
func (c *Composite) Dimensions() uint32 { return c.dims }

// NumSlices is the number of accumulator slices, one per member set.
func (c *Composite) NumSlices() int { return len(c.sets) }

func (c *Composite) Slice(i int) Set { return c.sets[i] }

func (c *Composite) Offset(i int) uint32 { return c.offsets[i] }

// MaxActiveDimensions is the sum over member sets.
func (c *Composite) MaxActiveDimensions() int {
	n := 0
	for _, s := range c.sets {
		n += s.MaxActiveDimensions()
	}
	return n
}

// AppendActiveIndices collects slice i's active indices, shifted into the
// composite index space.
func (c *Composite) AppendActiveIndices(pos *board.Position, perspective board.Color, i int, active *IndexList) {
	base := active.Len()
	c.sets[i].AppendActiveIndices(pos, perspective, active)
	for j := base; j < active.Len(); j++ {
		active.values[j] += c.offsets[i]
	}
}

// AppendChangedIndices collects slice i's removed and added indices for
// a move diff, shifted into the composite index space.
func (c *Composite) AppendChangedIndices(pos *board.Position, perspective board.Color, dirty *board.DirtyPiece, i int, removed, added *IndexList) {
	rbase, abase := removed.Len(), added.Len()
	c.sets[i].AppendChangedIndices(pos, perspective, dirty, removed, added)
	for j := rbase; j < removed.Len(); j++ {
		removed.values[j] += c.offsets[i]
	}
	for j := abase; j < added.Len(); j++ {
		added.values[j] += c.offsets[i]
	}
}

// AppendAllActiveIndices collects the active indices of every slice in
// the composite index space. Used by the trainer, which has no use for
// per-slice incremental state.
func (c *Composite) AppendAllActiveIndices(pos *board.Position, perspective board.Color, active *IndexList) {
	for i := range c.sets {
		c.AppendActiveIndices(pos, perspective, i, active)
	}
}
