package board

// PieceChange records one slot of a dirty-piece diff: a piece leaving a
// square, appearing on one, or both (a normal move). Promotions use
// different Old/New pieces in a single slot.
type PieceChange struct {
	OldPc Piece  // NoPiece if nothing was removed
	OldSq Square // square the piece left
	NewPc Piece  // NoPiece if nothing was added
	NewSq Square // square the piece appeared on
}

// DirtyPiece is the minimal description of which pieces changed on the last
// move: at most the mover, a captured piece and the castling rook. The
// accumulator consumes it exactly once to patch itself in O(changes).
type DirtyPiece struct {
	Changes [3]PieceChange
	Num     int
}

func (d *DirtyPiece) add(oldPc Piece, oldSq Square, newPc Piece, newSq Square) {
	d.Changes[d.Num] = PieceChange{OldPc: oldPc, OldSq: oldSq, NewPc: newPc, NewSq: newSq}
	d.Num++
}

// State holds the per-ply undo information plus the dirty-piece diff for
// the move that created it.
type State struct {
	Move           Move
	Captured       Piece
	CapturedSq     Square
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Dirty          DirtyPiece
}

// Position represents a chess position together with its move history.
type Position struct {
	Board      [NumSquares]Piece
	Occupied   Bitboard
	KingSquare [NumColors]Square

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int

	states []State
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// PieceOn returns the piece on sq, or NoPiece.
func (p *Position) PieceOn(sq Square) Piece {
	return p.Board[sq]
}

// Pieces returns the occupancy bitboard.
func (p *Position) Pieces() Bitboard {
	return p.Occupied
}

// Ply returns the number of moves applied since the root position.
func (p *Position) Ply() int {
	return len(p.states)
}

// LastDirty returns the dirty-piece diff of the most recent move, or nil at
// the root.
func (p *Position) LastDirty() *DirtyPiece {
	if len(p.states) == 0 {
		return nil
	}
	return &p.states[len(p.states)-1].Dirty
}

func (p *Position) setPiece(pc Piece, sq Square) {
	p.Board[sq] = pc
	p.Occupied |= SquareBB(sq)
	if pc.Type() == King {
		p.KingSquare[pc.Color()] = sq
	}
}

func (p *Position) clearSquare(sq Square) {
	p.Board[sq] = NoPiece
	p.Occupied &^= SquareBB(sq)
}

// castleRookSquares returns the rook's from/to squares for a castling move
// given the king's destination.
func castleRookSquares(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default: // C8
		return A8, D8
	}
}

// rights that disappear when a square is vacated or captured on.
var castlingMask = func() [NumSquares]CastlingRights {
	var m [NumSquares]CastlingRights
	for sq := range m {
		m[sq] = AllCastling
	}
	m[E1] &^= WhiteKingSide | WhiteQueenSide
	m[H1] &^= WhiteKingSide
	m[A1] &^= WhiteQueenSide
	m[E8] &^= BlackKingSide | BlackQueenSide
	m[H8] &^= BlackKingSide
	m[A8] &^= BlackQueenSide
	return m
}()

// ApplyMove applies a move assumed to be legal and returns the dirty-piece
// diff describing it. The caller owns legality; this package only mutates.
func (p *Position) ApplyMove(m Move) *DirtyPiece {
	us := p.SideToMove
	from, to := m.From(), m.To()
	mover := p.Board[from]

	p.states = append(p.states, State{
		Move:           m,
		Captured:       NoPiece,
		CapturedSq:     NoSquare,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
	})
	st := &p.states[len(p.states)-1]

	// Capture, including the en passant special case.
	if m.IsEnPassant() {
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		st.Captured = p.Board[capSq]
		st.CapturedSq = capSq
	} else if p.Board[to] != NoPiece {
		st.Captured = p.Board[to]
		st.CapturedSq = to
	}
	if st.Captured != NoPiece {
		st.Dirty.add(st.Captured, st.CapturedSq, NoPiece, NoSquare)
		p.clearSquare(st.CapturedSq)
	}

	// The mover, possibly changing identity on promotion.
	after := mover
	if m.IsPromotion() {
		after = NewPiece(m.Promotion(), us)
	}
	st.Dirty.add(mover, from, after, to)
	p.clearSquare(from)
	p.setPiece(after, to)

	// Castling moves the rook too.
	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(to)
		rook := p.Board[rookFrom]
		st.Dirty.add(rook, rookFrom, rook, rookTo)
		p.clearSquare(rookFrom)
		p.setPiece(rook, rookTo)
	}

	p.CastlingRights &= castlingMask[from] & castlingMask[to]

	// New en passant target only after a double pawn push.
	p.EnPassant = NoSquare
	if mover.Type() == Pawn && (int(to)-int(from) == 16 || int(from)-int(to) == 16) {
		p.EnPassant = (from + to) / 2
	}

	if mover.Type() == Pawn || st.Captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = us.Other()
	return &st.Dirty
}

// ApplyNullMove passes the turn without moving a piece. The diff is empty;
// the evaluator treats it as a refresh-triggering event for trigger-bound
// feature slices only (nothing on the board changed).
func (p *Position) ApplyNullMove() *DirtyPiece {
	p.states = append(p.states, State{
		Move:           NoMove,
		Captured:       NoPiece,
		CapturedSq:     NoSquare,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
	})
	st := &p.states[len(p.states)-1]
	p.EnPassant = NoSquare
	p.HalfMoveClock++
	p.SideToMove = p.SideToMove.Other()
	return &st.Dirty
}

// Undo reverses the most recent ApplyMove or ApplyNullMove.
func (p *Position) Undo() {
	st := &p.states[len(p.states)-1]
	p.states = p.states[:len(p.states)-1]

	p.SideToMove = p.SideToMove.Other()
	p.CastlingRights = st.CastlingRights
	p.EnPassant = st.EnPassant
	p.HalfMoveClock = st.HalfMoveClock
	if p.SideToMove == Black {
		// FullMoveNumber was bumped after Black's move.
		if st.Move != NoMove {
			p.FullMoveNumber--
		}
	}
	if st.Move == NoMove {
		return
	}

	m := st.Move
	from, to := m.From(), m.To()
	mover := p.Board[to]
	if m.IsPromotion() {
		mover = NewPiece(Pawn, p.SideToMove)
	}
	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(to)
		rook := p.Board[rookTo]
		p.clearSquare(rookTo)
		p.setPiece(rook, rookFrom)
	}
	p.clearSquare(to)
	p.setPiece(mover, from)
	if st.Captured != NoPiece {
		p.setPiece(st.Captured, st.CapturedSq)
	}
}
