package board

import (
	"fmt"
	"math/bits"
	"strings"
)

// Bitboard represents the 81 squares as a 128-bit set.
// Squares 0-63 live in lo, squares 64-80 in the low 17 bits of hi.
type Bitboard struct {
	lo, hi uint64
}

const hiMask = 1<<(NumSquares-64) - 1

var (
	// Empty has no squares set.
	Empty = Bitboard{}
	// Universe has every square set.
	Universe = Bitboard{lo: ^uint64(0), hi: hiMask}
)

// Square masks are package-level initializers so every init function,
// in any file, sees them built.
var (
	squareBB = newSquareBBs()

	// FileMask holds the squares of each file (0 is file "1").
	FileMask = newFileMasks()
	// RankMask holds the squares of each rank (0 is rank "a").
	RankMask = newRankMasks()

	// promotionZone holds the three far ranks of each color.
	promotionZone = newPromotionZones()
)

func newSquareBBs() (bbs [NumSquares + 1]Bitboard) {
	for sq := Square(0); sq < NumSquares; sq++ {
		if sq < 64 {
			bbs[sq] = Bitboard{lo: 1 << sq}
		} else {
			bbs[sq] = Bitboard{hi: 1 << (sq - 64)}
		}
	}
	return bbs
}

func newFileMasks() (masks [NumFiles]Bitboard) {
	for sq := Square(0); sq < NumSquares; sq++ {
		masks[sq.File()] = masks[sq.File()].Or(squareBB[sq])
	}
	return masks
}

func newRankMasks() (masks [NumRanks]Bitboard) {
	for sq := Square(0); sq < NumSquares; sq++ {
		masks[sq.Rank()] = masks[sq.Rank()].Or(squareBB[sq])
	}
	return masks
}

func newPromotionZones() (zones [2]Bitboard) {
	for sq := Square(0); sq < NumSquares; sq++ {
		for c := Black; c <= White; c++ {
			if sq.InPromotionZone(c) {
				zones[c] = zones[c].Or(squareBB[sq])
			}
		}
	}
	return zones
}

// SquareBB returns a bitboard with only the given square set.
// NoSquare yields an empty bitboard.
func SquareBB(sq Square) Bitboard {
	return squareBB[sq]
}

// And returns the intersection.
func (b Bitboard) And(o Bitboard) Bitboard {
	return Bitboard{b.lo & o.lo, b.hi & o.hi}
}

// Or returns the union.
func (b Bitboard) Or(o Bitboard) Bitboard {
	return Bitboard{b.lo | o.lo, b.hi | o.hi}
}

// Xor returns the symmetric difference.
func (b Bitboard) Xor(o Bitboard) Bitboard {
	return Bitboard{b.lo ^ o.lo, b.hi ^ o.hi}
}

// AndNot returns b without the squares of o.
func (b Bitboard) AndNot(o Bitboard) Bitboard {
	return Bitboard{b.lo &^ o.lo, b.hi &^ o.hi}
}

// Not returns the complement restricted to the board.
func (b Bitboard) Not() Bitboard {
	return Bitboard{^b.lo, ^b.hi & hiMask}
}

// Set sets the bit of the given square.
func (b Bitboard) Set(sq Square) Bitboard {
	return b.Or(squareBB[sq])
}

// Clear clears the bit of the given square.
func (b Bitboard) Clear(sq Square) Bitboard {
	return b.AndNot(squareBB[sq])
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	s := squareBB[sq]
	return b.lo&s.lo != 0 || b.hi&s.hi != 0
}

// IsZero returns true if no bits are set.
func (b Bitboard) IsZero() bool {
	return b.lo == 0 && b.hi == 0
}

// More returns true if there are any bits set.
func (b Bitboard) More() bool {
	return !b.IsZero()
}

// PopCount returns the number of set bits.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.lo) + bits.OnesCount64(b.hi)
}

// LSB returns the lowest set square.
func (b Bitboard) LSB() Square {
	if b.lo != 0 {
		return Square(bits.TrailingZeros64(b.lo))
	}
	if b.hi != 0 {
		return Square(64 + bits.TrailingZeros64(b.hi))
	}
	return NoSquare
}

// PopLSB removes and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	if b.lo != 0 {
		sq := Square(bits.TrailingZeros64(b.lo))
		b.lo &= b.lo - 1
		return sq
	}
	if b.hi != 0 {
		sq := Square(64 + bits.TrailingZeros64(b.hi))
		b.hi &= b.hi - 1
		return sq
	}
	return NoSquare
}

// ForEach calls the function for each set square.
func (b Bitboard) ForEach(f func(Square)) {
	for b.More() {
		f(b.PopLSB())
	}
}

// Squares returns a slice of all squares that are set.
func (b Bitboard) Squares() []Square {
	squares := make([]Square, 0, b.PopCount())
	for b.More() {
		squares = append(squares, b.PopLSB())
	}
	return squares
}

// String returns a visual representation with file 9 on the left, rank a on top.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 0; rank < NumRanks; rank++ {
		for file := NumFiles - 1; file >= 0; file-- {
			if b.IsSet(NewSquare(file, rank)) {
				sb.WriteString("1 ")
			} else {
				sb.WriteString(". ")
			}
		}
		fmt.Fprintf(&sb, "%c\n", 'a'+rank)
	}
	sb.WriteString("9 8 7 6 5 4 3 2 1\n")
	return sb.String()
}
