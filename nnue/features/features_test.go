package features

import (
	"sort"
	"testing"

	"github.com/hailam/nnue/internal/board"
)

func TestMakeCodePerspectiveSymmetry(t *testing.T) {
	for pc := board.Piece(0); pc < board.NumPieces; pc++ {
		mirror := board.NewPiece(pc.Type(), pc.Color().Other())
		for sq := board.Square(0); sq < board.NumSquares; sq++ {
			white := MakeCode(board.White, pc, sq)
			black := MakeCode(board.Black, mirror, sq.Flip())
			if white != black {
				t.Fatalf("MakeCode(%v on %v) = %d from white, %d mirrored", pc, sq, white, black)
			}
		}
	}
}

func TestMakeCodeRange(t *testing.T) {
	for pc := board.Piece(0); pc < board.NumPieces; pc++ {
		for sq := board.Square(0); sq < board.NumSquares; sq++ {
			code := MakeCode(board.White, pc, sq)
			if pc.Type() == board.King {
				if code != PsNone {
					t.Fatalf("king code = %d, want PsNone", code)
				}
				continue
			}
			if code < PsHandEnd || code >= PsEnd {
				t.Fatalf("MakeCode(%v on %v) = %d out of range", pc, sq, code)
			}
		}
	}
}

func TestHalfKPIndexInjective(t *testing.T) {
	s := NewHalfKP(Friend)
	seen := make([]bool, s.Dimensions())
	for ksq := board.Square(0); ksq < board.NumSquares; ksq++ {
		for code := uint32(PsHandEnd); code < PsEnd; code++ {
			index := s.MakeIndex(ksq, code)
			if index >= s.Dimensions() {
				t.Fatalf("index %d out of range for ksq=%v code=%d", index, ksq, code)
			}
			if seen[index] {
				t.Fatalf("index %d produced twice (ksq=%v code=%d)", index, ksq, code)
			}
			seen[index] = true
			gotK, gotC := s.UnpackIndex(index)
			if gotK != ksq || gotC != code {
				t.Fatalf("UnpackIndex(%d) = (%v, %d), want (%v, %d)", index, gotK, gotC, ksq, code)
			}
		}
	}
}

func TestHalfRelativeKPIndexRoundTrip(t *testing.T) {
	s := NewHalfRelativeKP(Friend)
	for ksq := board.Square(0); ksq < board.NumSquares; ksq++ {
		for code := uint32(PsHandEnd); code < PsEnd; code++ {
			sq := board.Square((code - PsHandEnd) % board.NumSquares)
			if sq == ksq {
				continue // a piece cannot share the king's square
			}
			index := s.MakeIndex(ksq, code)
			if index >= s.Dimensions() {
				t.Fatalf("index %d out of range for ksq=%v code=%d", index, ksq, code)
			}
			kind, relFile, relRank := s.UnpackIndex(index)
			if kind != (code-PsHandEnd)/board.NumSquares {
				t.Fatalf("kind = %d for code %d", kind, code)
			}
			if relFile != sq.File()-ksq.File() || relRank != sq.Rank()-ksq.Rank() {
				t.Fatalf("UnpackIndex(%d) = (%d,%d), want (%d,%d)",
					index, relFile, relRank, sq.File()-ksq.File(), sq.Rank()-ksq.Rank())
			}
		}
	}
}

func TestHalfRelativeKPTranslationInvariant(t *testing.T) {
	s := NewHalfRelativeKP(Friend)
	// Knight two files right, one rank up of the king, in two places.
	a := s.MakeIndex(board.C3, MakeCode(board.White, board.WhiteKnight, board.E4))
	b := s.MakeIndex(board.F5, MakeCode(board.White, board.WhiteKnight, board.H6))
	if a != b {
		t.Errorf("same constellation got different indices %d, %d", a, b)
	}
}

func TestEnPassantActiveIndices(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppp1ppp/8/8/3Pp3/8/PPP1PPPP/RNBQKBNR b KQkq d3 0 3")
	if err != nil {
		t.Fatal(err)
	}
	var s EnPassant
	for _, perspective := range []board.Color{board.White, board.Black} {
		var active IndexList
		s.AppendActiveIndices(pos, perspective, &active)
		if active.Len() != 1 || active.At(0) != 3 {
			t.Errorf("%v: active = %v, want [3]", perspective, active.Values())
		}
	}

	quiet := board.NewPosition()
	var active IndexList
	s.AppendActiveIndices(quiet, board.White, &active)
	if active.Len() != 0 {
		t.Errorf("no en passant but active = %v", active.Values())
	}
}

func TestRequiresRefresh(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	dirty := pos.ApplyMove(board.NewMove(board.E1, board.E2))

	cases := []struct {
		trigger     RefreshTrigger
		perspective board.Color
		want        bool
	}{
		{TriggerNone, board.White, false},
		{TriggerNone, board.Black, false},
		{TriggerFriendKingMoved, board.White, true},
		{TriggerFriendKingMoved, board.Black, false},
		{TriggerEnemyKingMoved, board.White, false},
		{TriggerEnemyKingMoved, board.Black, true},
		{TriggerAlways, board.White, true},
		{TriggerAlways, board.Black, true},
	}
	for _, c := range cases {
		if got := RequiresRefresh(c.trigger, c.perspective, dirty); got != c.want {
			t.Errorf("RequiresRefresh(%v, %v) = %v, want %v", c.trigger, c.perspective, got, c.want)
		}
	}
	// Nil diff (null move, new root) forces a refresh for every trigger.
	for _, trigger := range []RefreshTrigger{TriggerNone, TriggerFriendKingMoved, TriggerEnemyKingMoved, TriggerAlways} {
		if !RequiresRefresh(trigger, board.White, nil) {
			t.Errorf("RequiresRefresh(%v, nil) = false", trigger)
		}
	}
}

func sortedIndices(l *IndexList) []uint32 {
	out := append([]uint32(nil), l.Values()...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func applyDiff(t *testing.T, active map[uint32]bool, removed, added *IndexList) {
	t.Helper()
	for _, index := range removed.Values() {
		if !active[index] {
			t.Fatalf("removed index %d was not active", index)
		}
		delete(active, index)
	}
	for _, index := range added.Values() {
		if active[index] {
			t.Fatalf("added index %d was already active", index)
		}
		active[index] = true
	}
}

// Changed-index lists must transform the previous active set into the new
// one exactly, for every move kind, as long as the set's trigger did not
// fire.
func TestChangedIndicesMatchActive(t *testing.T) {
	sets := []Set{P{}, NewHalfKP(Friend), NewHalfKP(Enemy), NewHalfRelativeKP(Friend), NewHalfRelativeKP(Enemy)}
	games := [][]board.Move{
		{
			board.NewMove(board.E2, board.E4), board.NewMove(board.E7, board.E5),
			board.NewMove(board.G1, board.F3), board.NewMove(board.B8, board.C6),
			board.NewMove(board.F1, board.C4), board.NewMove(board.F8, board.C5),
			board.NewCastling(board.E1, board.G1), board.NewMove(board.G8, board.F6),
			board.NewMove(board.D2, board.D3), board.NewMove(board.D7, board.D6),
			board.NewMove(board.C1, board.G5), board.NewMove(board.H7, board.H6),
			board.NewMove(board.G5, board.F6), board.NewMove(board.D8, board.F6),
		},
		{
			board.NewMove(board.E2, board.E4), board.NewMove(board.A7, board.A6),
			board.NewMove(board.E4, board.E5), board.NewMove(board.D7, board.D5),
			board.NewEnPassant(board.E5, board.D6), board.NewMove(board.C7, board.D6),
		},
	}
	for _, s := range sets {
		for g, game := range games {
			pos := board.NewPosition()
			for _, perspective := range []board.Color{board.White, board.Black} {
				active := make(map[uint32]bool)
				var list IndexList
				s.AppendActiveIndices(pos, perspective, &list)
				for _, index := range list.Values() {
					active[index] = true
				}
				for _, m := range game {
					dirty := pos.ApplyMove(m)
					if RequiresRefresh(s.RefreshTrigger(), perspective, dirty) {
						// Incremental update is not defined here; restart
						// from the fresh active set as the evaluator would.
						active = make(map[uint32]bool)
						var fresh IndexList
						s.AppendActiveIndices(pos, perspective, &fresh)
						for _, index := range fresh.Values() {
							active[index] = true
						}
					} else {
						var removed, added IndexList
						s.AppendChangedIndices(pos, perspective, dirty, &removed, &added)
						applyDiff(t, active, &removed, &added)
					}
					var want IndexList
					s.AppendActiveIndices(pos, perspective, &want)
					if len(active) != want.Len() {
						t.Fatalf("%s game %d %v after %v: %d active, want %d",
							s.Name(), g, perspective, m, len(active), want.Len())
					}
					for _, index := range want.Values() {
						if !active[index] {
							t.Fatalf("%s game %d %v after %v: missing index %d",
								s.Name(), g, perspective, m, index)
						}
					}
				}
				for range game {
					pos.Undo()
				}
			}
		}
	}
}

// A quiet knight move must touch exactly its own from/to features.
func TestQuietMoveDiffMinimal(t *testing.T) {
	pos := board.NewPosition()
	dirty := pos.ApplyMove(board.NewMove(board.B1, board.C3))

	var p P
	var removed, added IndexList
	p.AppendChangedIndices(pos, board.White, dirty, &removed, &added)
	if removed.Len() != 1 || removed.At(0) != MakeCode(board.White, board.WhiteKnight, board.B1) {
		t.Errorf("P removed = %v", removed.Values())
	}
	if added.Len() != 1 || added.At(0) != MakeCode(board.White, board.WhiteKnight, board.C3) {
		t.Errorf("P added = %v", added.Values())
	}

	s := NewHalfKP(Friend)
	ksq := OrientedKing(pos, board.White, board.White)
	removed.Clear()
	added.Clear()
	s.AppendChangedIndices(pos, board.White, dirty, &removed, &added)
	if removed.Len() != 1 || removed.At(0) != s.MakeIndex(ksq, MakeCode(board.White, board.WhiteKnight, board.B1)) {
		t.Errorf("HalfKP removed = %v", removed.Values())
	}
	if added.Len() != 1 || added.At(0) != s.MakeIndex(ksq, MakeCode(board.White, board.WhiteKnight, board.C3)) {
		t.Errorf("HalfKP added = %v", added.Values())
	}
}

func TestCompositeLayout(t *testing.T) {
	c := NewComposite(NewHalfKP(Friend), EnPassant{})
	if c.NumSlices() != 2 {
		t.Fatalf("NumSlices = %d", c.NumSlices())
	}
	wantDims := NewHalfKP(Friend).Dimensions() + EnPassant{}.Dimensions()
	if c.Dimensions() != wantDims {
		t.Errorf("Dimensions = %d, want %d", c.Dimensions(), wantDims)
	}
	if c.Offset(0) != 0 || c.Offset(1) != NewHalfKP(Friend).Dimensions() {
		t.Errorf("offsets = %d, %d", c.Offset(0), c.Offset(1))
	}
	if c.Name() != "HalfKP(Friend)+EnPassant" {
		t.Errorf("Name = %q", c.Name())
	}
	if c.HashValue() == NewComposite(NewHalfKP(Friend)).HashValue() {
		t.Error("hash ignores member sets")
	}

	pos, err := board.ParseFEN("rnbqkbnr/pppp1ppp/8/8/3Pp3/8/PPP1PPPP/RNBQKBNR b KQkq d3 0 3")
	if err != nil {
		t.Fatal(err)
	}
	for slice := 0; slice < c.NumSlices(); slice++ {
		var active IndexList
		c.AppendActiveIndices(pos, board.White, slice, &active)
		lo, hi := c.Offset(slice), c.Offset(slice)+c.Slice(slice).Dimensions()
		for _, index := range active.Values() {
			if index < lo || index >= hi {
				t.Errorf("slice %d index %d outside [%d, %d)", slice, index, lo, hi)
			}
		}
	}
	var all IndexList
	c.AppendAllActiveIndices(pos, board.White, &all)
	// 30 non-king pieces plus the en passant file.
	if all.Len() != 31 {
		t.Errorf("AppendAllActiveIndices: %d indices, want 31: %v", all.Len(), sortedIndices(&all))
	}
}

func TestStartPositionActiveCounts(t *testing.T) {
	pos := board.NewPosition()
	for _, s := range []Set{P{}, NewHalfKP(Friend), NewHalfKP(Enemy), NewHalfRelativeKP(Friend)} {
		for _, perspective := range []board.Color{board.White, board.Black} {
			var active IndexList
			s.AppendActiveIndices(pos, perspective, &active)
			if active.Len() != 30 {
				t.Errorf("%s %v: %d active, want 30", s.Name(), perspective, active.Len())
			}
			if active.Len() > s.MaxActiveDimensions() {
				t.Errorf("%s: active exceeds MaxActiveDimensions", s.Name())
			}
		}
	}
}
