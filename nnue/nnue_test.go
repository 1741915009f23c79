package nnue

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/hailam/nnue/internal/board"
)

func testNetwork(t *testing.T) *Network {
	t.Helper()
	net := NewNetwork(NewFeatureSet())
	net.InitRandom(42)
	return net
}

// step is one move of a scripted game; null stands for a null move.
type step struct {
	move board.Move
	null bool
}

func play(moves ...board.Move) []step {
	steps := make([]step, len(moves))
	for i, m := range moves {
		steps[i] = step{move: m}
	}
	return steps
}

type scriptedGame struct {
	name  string
	fen   string
	steps []step
}

func testGames() []scriptedGame {
	return []scriptedGame{
		{
			name: "italian with castling and captures",
			fen:  board.StartFEN,
			steps: play(
				board.NewMove(board.E2, board.E4), board.NewMove(board.E7, board.E5),
				board.NewMove(board.G1, board.F3), board.NewMove(board.B8, board.C6),
				board.NewMove(board.F1, board.C4), board.NewMove(board.F8, board.C5),
				board.NewCastling(board.E1, board.G1), board.NewMove(board.G8, board.F6),
				board.NewMove(board.D2, board.D3), board.NewMove(board.D7, board.D6),
				board.NewMove(board.C1, board.G5), board.NewMove(board.H7, board.H6),
				board.NewMove(board.G5, board.F6), board.NewMove(board.D8, board.F6),
			),
		},
		{
			name: "en passant",
			fen:  board.StartFEN,
			steps: play(
				board.NewMove(board.E2, board.E4), board.NewMove(board.A7, board.A6),
				board.NewMove(board.E4, board.E5), board.NewMove(board.D7, board.D5),
				board.NewEnPassant(board.E5, board.D6), board.NewMove(board.C7, board.D6),
			),
		},
		{
			name: "promotions and king moves",
			fen:  "4k3/P7/8/8/8/8/p7/4K3 w - - 0 1",
			steps: play(
				board.NewPromotion(board.A7, board.A8, board.Queen),
				board.NewMove(board.E8, board.E7),
				board.NewMove(board.E1, board.E2),
				board.NewPromotion(board.A2, board.A1, board.Rook),
			),
		},
		{
			name: "null moves interleaved",
			fen:  board.StartFEN,
			steps: []step{
				{move: board.NewMove(board.E2, board.E4)},
				{null: true},
				{move: board.NewMove(board.D2, board.D4)},
				{null: true},
				{move: board.NewMove(board.B1, board.C3)},
			},
		},
	}
}

func freshEvaluate(t *testing.T, net *Network, pos *board.Position) int {
	t.Helper()
	ev := NewEvaluator(net)
	ev.Reset()
	return ev.Evaluate(pos)
}

// comparePlanes checks the maintained accumulator slice by slice against a
// from-scratch refresh, so a compensating error in the forward pass cannot
// mask a wrong plane.
func comparePlanes(t *testing.T, net *Network, ev *Evaluator, pos *board.Position) {
	t.Helper()
	fresh := NewEvaluator(net)
	fresh.Reset()
	fresh.updateAccumulator(pos)
	got, want := ev.stack[ev.ply], fresh.stack[0]
	for c := board.White; c <= board.Black; c++ {
		for slice := range got.Accumulation[c] {
			for i, v := range got.Accumulation[c][slice] {
				if v != want.Accumulation[c][slice][i] {
					t.Fatalf("%v slice %d unit %d: incremental %d, refresh %d",
						c, slice, i, v, want.Accumulation[c][slice][i])
				}
			}
		}
	}
}

// Incrementally maintained evaluations must equal a from-scratch
// evaluation at every ply, whatever mix of quiet moves, captures,
// castling, en passant, promotions and null moves led there.
func TestIncrementalMatchesRefresh(t *testing.T) {
	net := testNetwork(t)
	for _, game := range testGames() {
		t.Run(game.name, func(t *testing.T) {
			pos, err := board.ParseFEN(game.fen)
			if err != nil {
				t.Fatal(err)
			}
			ev := NewEvaluator(net)
			ev.Reset()
			ev.Evaluate(pos)
			for i, s := range game.steps {
				if s.null {
					pos.ApplyNullMove()
					ev.DoNullMove()
				} else {
					ev.DoMove(pos.ApplyMove(s.move))
				}
				got := ev.Evaluate(pos)
				want := freshEvaluate(t, net, pos)
				if got != want {
					t.Fatalf("ply %d (%v): incremental %d, refresh %d", i+1, s.move, got, want)
				}
				comparePlanes(t, net, ev, pos)
			}
			for i := len(game.steps) - 1; i >= 0; i-- {
				pos.Undo()
				ev.UndoMove()
				got := ev.Evaluate(pos)
				want := freshEvaluate(t, net, pos)
				if got != want {
					t.Fatalf("unwind to ply %d: incremental %d, refresh %d", i, got, want)
				}
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	net := testNetwork(t)
	pos := board.NewPosition()

	cold := freshEvaluate(t, net, pos)
	if again := freshEvaluate(t, net, pos); again != cold {
		t.Errorf("cold evaluations differ: %d, %d", cold, again)
	}

	ev := NewEvaluator(net)
	ev.Reset()
	warm := ev.Evaluate(pos)
	if warm != cold {
		t.Errorf("warm %d, cold %d", warm, cold)
	}
	// Revisiting the same node must reproduce the score bit for bit.
	ev.DoMove(pos.ApplyMove(board.NewMove(board.E2, board.E4)))
	ev.Evaluate(pos)
	pos.Undo()
	ev.UndoMove()
	if again := ev.Evaluate(pos); again != warm {
		t.Errorf("after make/unmake: %d, want %d", again, warm)
	}
}

func TestScoreIsCached(t *testing.T) {
	net := testNetwork(t)
	pos := board.NewPosition()
	ev := NewEvaluator(net)
	ev.Reset()
	ev.Evaluate(pos)
	acc := ev.stack[ev.ply]
	if !acc.ComputedScore || !acc.ComputedAccumulation {
		t.Fatal("flags not set after Evaluate")
	}
	// Poison the accumulation; a cached score must not recompute it.
	acc.Accumulation[board.White][0][0] += 999
	if got := ev.Evaluate(pos); got != acc.Score {
		t.Errorf("cached read returned %d, want %d", got, acc.Score)
	}
}

func TestNetworkFileRoundTrip(t *testing.T) {
	net := testNetwork(t)
	var buf bytes.Buffer
	if err := net.Write(&buf); err != nil {
		t.Fatal(err)
	}
	first := append([]byte(nil), buf.Bytes()...)

	back := NewNetwork(NewFeatureSet())
	if err := back.Read(&buf); err != nil {
		t.Fatal(err)
	}
	var again bytes.Buffer
	if err := back.Write(&again); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, again.Bytes()) {
		t.Error("file not byte-identical after read/write round trip")
	}

	pos := board.NewPosition()
	if a, b := freshEvaluate(t, net, pos), freshEvaluate(t, back, pos); a != b {
		t.Errorf("loaded network evaluates %d, original %d", b, a)
	}
}

func TestNetworkReadRejectsMismatch(t *testing.T) {
	net := testNetwork(t)
	var buf bytes.Buffer
	if err := net.Write(&buf); err != nil {
		t.Fatal(err)
	}
	good := buf.Bytes()

	bad := append([]byte(nil), good...)
	bad[0] ^= 0xFF // version
	if err := NewNetwork(NewFeatureSet()).Read(bytes.NewReader(bad)); err == nil {
		t.Error("wrong version accepted")
	}

	bad = append([]byte(nil), good...)
	bad[4] ^= 0xFF // architecture hash
	if err := NewNetwork(NewFeatureSet()).Read(bytes.NewReader(bad)); err == nil {
		t.Error("wrong architecture hash accepted")
	}

	if err := NewNetwork(NewFeatureSet()).Read(bytes.NewReader(good[:20])); err == nil {
		t.Error("truncated file accepted")
	}
}

func TestInfo(t *testing.T) {
	net := testNetwork(t)
	dir := t.TempDir()
	filename := filepath.Join(dir, "nn.bin")
	if err := net.Save(filename); err != nil {
		t.Fatal(err)
	}
	h, ok, err := Info(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("saved network reported incompatible")
	}
	if h.Version != Version || h.Hash != net.GetHashValue() {
		t.Errorf("header = %+v", h)
	}
	if h.Description != net.Description {
		t.Errorf("description = %q, want %q", h.Description, net.Description)
	}

	loaded := NewNetwork(NewFeatureSet())
	if err := loaded.Load(filename); err != nil {
		t.Fatal(err)
	}
}

func TestTransformSideToMoveFirst(t *testing.T) {
	net := testNetwork(t)
	pos := board.NewPosition()
	ev := NewEvaluator(net)
	ev.Reset()
	ev.updateAccumulator(pos)
	acc := ev.stack[0]

	white := make([]uint8, 2*TransformedFeatureDims)
	black := make([]uint8, 2*TransformedFeatureDims)
	net.FT.Transform(acc, board.White, white)
	net.FT.Transform(acc, board.Black, black)
	if !bytes.Equal(white[:TransformedFeatureDims], black[TransformedFeatureDims:]) ||
		!bytes.Equal(white[TransformedFeatureDims:], black[:TransformedFeatureDims]) {
		t.Error("halves are not swapped between side-to-move views")
	}
}
