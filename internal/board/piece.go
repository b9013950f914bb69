package board

// Color represents the side owning a piece. Black (sente) moves first.
type Color uint8

const (
	Black Color = iota
	White
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "NoColor"
	}
}

// PieceType represents the kind of a shogi piece, promoted kinds included.
// Promoted types are the base type with bit 3 set.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Lance
	Knight
	Silver
	Bishop
	Rook
	Gold
	King
	ProPawn
	ProLance
	ProKnight
	ProSilver
	Horse
	Dragon

	NumPieceTypes = 15
	promotedFlag  = 8
)

// handTypes lists droppable types in the order they appear in SFEN hands.
var handTypes = [...]PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

// maxPieceCount is the full set count per base type.
var maxPieceCount = [NumPieceTypes]int{
	Pawn: 18, Lance: 4, Knight: 4, Silver: 4, Bishop: 2, Rook: 2, Gold: 4, King: 2,
}

// CanPromote reports whether the type has a promoted form.
func (pt PieceType) CanPromote() bool {
	return pt >= Pawn && pt <= Rook
}

// IsPromoted reports whether the type is a promoted form.
func (pt PieceType) IsPromoted() bool {
	return pt > King && pt < NumPieceTypes
}

// Promote returns the promoted form, or pt itself if it cannot promote.
func (pt PieceType) Promote() PieceType {
	if !pt.CanPromote() {
		return pt
	}
	return pt | promotedFlag
}

// Demote returns the unpromoted form. Captured pieces go to hand demoted.
func (pt PieceType) Demote() PieceType {
	if !pt.IsPromoted() {
		return pt
	}
	return pt &^ promotedFlag
}

// movesLikeGold reports whether the type uses the gold step pattern.
func (pt PieceType) movesLikeGold() bool {
	return pt == Gold || (pt >= ProPawn && pt <= ProSilver)
}

// String returns the piece type name.
func (pt PieceType) String() string {
	if pt >= NumPieceTypes {
		return "None"
	}
	return pieceTypeNames[pt]
}

var pieceTypeNames = [NumPieceTypes]string{
	"None", "Pawn", "Lance", "Knight", "Silver", "Bishop", "Rook", "Gold", "King",
	"ProPawn", "ProLance", "ProKnight", "ProSilver", "Horse", "Dragon",
}

// Char returns the SFEN letter of the unpromoted type (uppercase).
func (pt PieceType) Char() byte {
	const chars = " PLNSBRGK"
	base := pt.Demote()
	if base == NoPieceType || base > King {
		return ' '
	}
	return chars[base]
}

// pieceTypeFromChar maps an uppercase SFEN letter to its base type.
func pieceTypeFromChar(c byte) PieceType {
	switch c {
	case 'P':
		return Pawn
	case 'L':
		return Lance
	case 'N':
		return Knight
	case 'S':
		return Silver
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'G':
		return Gold
	case 'K':
		return King
	default:
		return NoPieceType
	}
}

// Piece combines PieceType and Color: pieceType | color<<4.
type Piece uint8

const (
	NoPiece    Piece = 0
	colorShift       = 4
	// PieceLimit bounds every valid Piece value, for table sizing.
	PieceLimit = 32
)

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt == NoPieceType || pt >= NumPieceTypes || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) | Piece(c)<<colorShift
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	return PieceType(p & 0xf)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p == NoPiece {
		return NoColor
	}
	return Color(p >> colorShift)
}

// String returns the SFEN token: uppercase for Black, lowercase for White,
// with a leading '+' for promoted pieces.
func (p Piece) String() string {
	if p == NoPiece {
		return " "
	}
	ch := p.Type().Char()
	if p.Color() == White {
		ch += 'a' - 'A'
	}
	if p.Type().IsPromoted() {
		return "+" + string(ch)
	}
	return string(ch)
}
