// Package board implements shogi board representation using bitboards.
package board

import "fmt"

// Square represents a square on the shogi board (0-80).
// Index = file*9 + rank. File 0 is file "1" (the right edge seen from Black),
// rank 0 is rank "a" (White's back rank). Black moves towards rank 0.
type Square uint8

// Board dimensions.
const (
	NumFiles   = 9
	NumRanks   = 9
	NumSquares = NumFiles * NumRanks

	NoSquare Square = NumSquares
)

// NewSquare creates a square from zero based file and rank indices.
func NewSquare(file, rank int) Square {
	return Square(file*NumRanks + rank)
}

// File returns the file index (0-8, where 0 is file "1").
func (sq Square) File() int {
	return int(sq) / NumRanks
}

// Rank returns the rank index (0-8, where 0 is rank "a").
func (sq Square) Rank() int {
	return int(sq) % NumRanks
}

// RelativeRank returns the rank seen from the given color:
// 0 is the far rank the color moves towards.
func (sq Square) RelativeRank(c Color) int {
	if c == Black {
		return sq.Rank()
	}
	return NumRanks - 1 - sq.Rank()
}

// IsValid returns true if the square is on the board.
func (sq Square) IsValid() bool {
	return sq < NumSquares
}

// InPromotionZone reports whether the square lies in the three far ranks of c.
func (sq Square) InPromotionZone(c Color) bool {
	return sq.RelativeRank(c) < 3
}

// String returns the USI name of the square (e.g. "7g").
func (sq Square) String() string {
	if sq >= NumSquares {
		return "-"
	}
	return fmt.Sprintf("%d%c", sq.File()+1, 'a'+sq.Rank())
}

// ParseSquare parses a square name like "7g".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}
	file := int(s[0] - '1')
	rank := int(s[1] - 'a')
	if file < 0 || file >= NumFiles || rank < 0 || rank >= NumRanks {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}
	return NewSquare(file, rank), nil
}

// MustParseSquare is ParseSquare for known-good literals.
func MustParseSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}
