package board

import (
	"fmt"
	"strings"
)

// Move16 is the compact move encoding stored in tables and records:
// bits 0-6:   to square (0-80)
// bits 7-13:  from square (0-80), or 81+pieceType-1 for drops
// bit  14:    promotion flag
type Move16 uint16

// Move32 extends Move16 with the data needed to undo a move:
// bits 15-18: moving piece type (before promotion; drop type for drops)
// bits 19-22: captured piece type (NoPieceType if none)
type Move32 uint32

const (
	moveToMask       = 0x7f
	moveFromShift    = 7
	movePromote      = 1 << 14
	move16Mask       = 0x7fff
	movePieceShift   = 15
	moveCaptureShift = 19
	pieceTypeMask    = 0xf

	dropBase = NumSquares - 1 // from = dropBase + pieceType
)

// MoveNone represents an invalid or null move.
const MoveNone Move32 = 0

// NewBoardMove creates a move of the piece pt from one square to another.
func NewBoardMove(from, to Square, pt, captured PieceType, promote bool) Move32 {
	m := Move32(to) | Move32(from)<<moveFromShift |
		Move32(pt)<<movePieceShift | Move32(captured)<<moveCaptureShift
	if promote {
		m |= movePromote
	}
	return m
}

// NewDropMove creates a drop of pt from hand onto to.
func NewDropMove(to Square, pt PieceType) Move32 {
	return Move32(to) | Move32(dropBase+int(pt))<<moveFromShift | Move32(pt)<<movePieceShift
}

// To returns the destination square.
func (m Move32) To() Square { return Move16(m).To() }

// From returns the origin square. Only meaningful if !IsDrop().
func (m Move32) From() Square { return Move16(m).From() }

// IsDrop returns true if the move drops a piece from hand.
func (m Move32) IsDrop() bool { return Move16(m).IsDrop() }

// IsPromotion returns true if the moving piece promotes.
func (m Move32) IsPromotion() bool { return Move16(m).IsPromotion() }

// DropType returns the dropped piece type. Only meaningful if IsDrop().
func (m Move32) DropType() PieceType { return Move16(m).DropType() }

// PieceType returns the type of the moving piece before promotion.
func (m Move32) PieceType() PieceType {
	return PieceType(m >> movePieceShift & pieceTypeMask)
}

// Captured returns the captured piece type, or NoPieceType.
func (m Move32) Captured() PieceType {
	return PieceType(m >> moveCaptureShift & pieceTypeMask)
}

// IsCapture returns true if this move captures a piece.
func (m Move32) IsCapture() bool {
	return m.Captured() != NoPieceType
}

// Move16 drops the undo data.
func (m Move32) Move16() Move16 {
	return Move16(m & move16Mask)
}

// String returns the USI form of the move (e.g. "7g7f", "8h2b+", "P*5e").
func (m Move32) String() string {
	return m.Move16().String()
}

// To returns the destination square.
func (m Move16) To() Square {
	return Square(m & moveToMask)
}

// From returns the origin square. Only meaningful if !IsDrop().
func (m Move16) From() Square {
	return Square(m >> moveFromShift & moveToMask)
}

// IsDrop returns true if the move drops a piece from hand.
func (m Move16) IsDrop() bool {
	return m.From() >= NumSquares
}

// IsPromotion returns true if the moving piece promotes.
func (m Move16) IsPromotion() bool {
	return m&movePromote != 0
}

// DropType returns the dropped piece type. Only meaningful if IsDrop().
func (m Move16) DropType() PieceType {
	return PieceType(int(m.From()) - dropBase)
}

// String returns the USI form of the move.
func (m Move16) String() string {
	if m == 0 {
		return "none"
	}
	if m.IsDrop() {
		return string(m.DropType().Char()) + "*" + m.To().String()
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += "+"
	}
	return s
}

// ParseMove parses a USI move string against pos, filling in the moving and
// captured piece types. The result is not checked for legality.
func ParseMove(s string, pos *Position) (Move32, error) {
	if len(s) < 4 || len(s) > 5 {
		return MoveNone, fmt.Errorf("invalid move string: %s", s)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return MoveNone, err
	}
	if s[1] == '*' {
		pt := pieceTypeFromChar(s[0])
		if pt == NoPieceType || pt == King || len(s) != 4 {
			return MoveNone, fmt.Errorf("invalid drop: %s", s)
		}
		return NewDropMove(to, pt), nil
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return MoveNone, err
	}
	promote := false
	if len(s) == 5 {
		if s[4] != '+' {
			return MoveNone, fmt.Errorf("invalid promotion suffix: %s", s)
		}
		promote = true
	}
	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return MoveNone, fmt.Errorf("no piece at %s", from)
	}
	return NewBoardMove(from, to, piece.Type(), pos.PieceAt(to).Type(), promote), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
// 593 is the largest known number of legal moves in a shogi position.
type MoveList struct {
	moves [600]Move32
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move32) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move32 {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move32) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move32) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move32 {
	return ml.moves[:ml.count]
}

// String returns the moves in USI form separated by spaces.
func (ml *MoveList) String() string {
	parts := make([]string, ml.count)
	for i, m := range ml.Slice() {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}
