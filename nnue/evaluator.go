package nnue

import (
	"github.com/hailam/nnue/internal/board"
	"github.com/hailam/nnue/nnue/features"
)

// Evaluator drives a Network during search. It keeps one Accumulator per
// ply; DoMove/UndoMove must mirror the search's make/unmake calls so the
// stack stays aligned with the position. Evaluation is lazy: a move only
// marks state stale, and the next Evaluate call repairs each perspective
// slice either incrementally from the parent ply or by a full refresh,
// depending on the slice's trigger. Not safe for concurrent use; search
// threads each own an Evaluator sharing one Network's parameters.
type Evaluator struct {
	net   *Network
	stack []*Accumulator
	dirty []*board.DirtyPiece
	ply   int

	transformed []uint8
}

const maxPly = 256

func NewEvaluator(net *Network) *Evaluator {
	e := &Evaluator{
		net:         net,
		stack:       make([]*Accumulator, maxPly),
		dirty:       make([]*board.DirtyPiece, maxPly),
		transformed: make([]uint8, 2*TransformedFeatureDims),
	}
	numSlices := net.FT.FeatureSet.NumSlices()
	for i := range e.stack {
		e.stack[i] = newAccumulator(numSlices)
	}
	return e
}

// Reset starts a new search root. The root accumulator is rebuilt from
// scratch on the next Evaluate.
func (e *Evaluator) Reset() {
	e.ply = 0
	e.stack[0].ComputedAccumulation = false
	e.stack[0].ComputedScore = false
	e.dirty[0] = nil
}

// DoMove records the diff of a move the search just applied.
func (e *Evaluator) DoMove(dirty *board.DirtyPiece) {
	e.push(dirty)
}

// DoNullMove records a null move. There is no diff to replay, so the new
// ply is rebuilt by a full refresh when evaluated.
func (e *Evaluator) DoNullMove() {
	e.push(nil)
}

func (e *Evaluator) push(dirty *board.DirtyPiece) {
	if Debug && e.ply+1 >= maxPly {
		panic("nnue: accumulator stack overflow")
	}
	e.ply++
	e.dirty[e.ply] = dirty
	e.stack[e.ply].ComputedAccumulation = false
	e.stack[e.ply].ComputedScore = false
}

// UndoMove pops one ply. The popped accumulator keeps its contents and
// is valid again immediately if the same ply is revisited.
func (e *Evaluator) UndoMove() {
	if Debug && e.ply == 0 {
		panic("nnue: UndoMove below root")
	}
	e.ply--
}

// Evaluate returns the score of pos from the side to move's point of
// view. pos must be the position the recorded move sequence leads to.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	acc := e.stack[e.ply]
	if acc.ComputedScore {
		return acc.Score
	}
	e.updateAccumulator(pos)
	e.net.FT.Transform(acc, pos.SideToMove, e.transformed)
	acc.Score = e.net.Propagate(e.transformed)
	acc.ComputedScore = true
	return acc.Score
}

func (e *Evaluator) updateAccumulator(pos *board.Position) {
	acc := e.stack[e.ply]
	if acc.ComputedAccumulation {
		return
	}
	fs := e.net.FT.FeatureSet
	dirty := e.dirty[e.ply]
	var prev *Accumulator
	if e.ply > 0 && e.stack[e.ply-1].ComputedAccumulation {
		prev = e.stack[e.ply-1]
	}
	for c := board.White; c <= board.Black; c++ {
		for i := 0; i < fs.NumSlices(); i++ {
			trigger := fs.Slice(i).RefreshTrigger()
			if prev == nil || features.RequiresRefresh(trigger, c, dirty) {
				e.net.FT.RefreshSlice(pos, acc, c, i)
			} else {
				e.net.FT.UpdateSlice(pos, prev, acc, c, dirty, i)
			}
		}
	}
	acc.ComputedAccumulation = true
}
