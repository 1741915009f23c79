package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
)

// NumColors is the number of piece colors.
const NumColors = 2

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

// Piece combines PieceType and Color into a single value.
// Encoded as pieceType + color*6; NoPiece is 12.
type Piece uint8

const (
	WhitePawn   Piece = Piece(Pawn)
	WhiteKnight Piece = Piece(Knight)
	WhiteBishop Piece = Piece(Bishop)
	WhiteRook   Piece = Piece(Rook)
	WhiteQueen  Piece = Piece(Queen)
	WhiteKing   Piece = Piece(King)
	BlackPawn   Piece = Piece(Pawn) + 6
	BlackKnight Piece = Piece(Knight) + 6
	BlackBishop Piece = Piece(Bishop) + 6
	BlackRook   Piece = Piece(Rook) + 6
	BlackQueen  Piece = Piece(Queen) + 6
	BlackKing   Piece = Piece(King) + 6
	NoPiece     Piece = 12
)

// NumPieces is the number of distinct piece values (NoPiece excluded).
const NumPieces = 12

// NewPiece builds a piece from type and color.
func NewPiece(pt PieceType, c Color) Piece {
	return Piece(pt) + Piece(c)*6
}

// Type returns the piece type.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the piece color. Only valid for real pieces.
func (p Piece) Color() Color {
	return Color(p / 6)
}

// Char returns the FEN character for the piece.
func (p Piece) Char() byte {
	const chars = "PNBRQKpnbrqk"
	if p >= NoPiece {
		return '.'
	}
	return chars[p]
}

// PieceFromChar parses a FEN piece character. Returns NoPiece if invalid.
func PieceFromChar(ch byte) Piece {
	const chars = "PNBRQKpnbrqk"
	for i := 0; i < len(chars); i++ {
		if chars[i] == ch {
			return Piece(i)
		}
	}
	return NoPiece
}

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSide  CastlingRights = 1 << iota // K
	WhiteQueenSide                            // Q
	BlackKingSide                             // k
	BlackQueenSide                            // q

	NoCastling  CastlingRights = 0
	AllCastling CastlingRights = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

// String returns the FEN castling rights field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSide != 0 {
		s += "K"
	}
	if cr&WhiteQueenSide != 0 {
		s += "Q"
	}
	if cr&BlackKingSide != 0 {
		s += "k"
	}
	if cr&BlackQueenSide != 0 {
		s += "q"
	}
	return s
}
