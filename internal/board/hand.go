package board

import (
	"fmt"
	"strings"
)

// Hand holds captured pieces available for drops, indexed by base PieceType
// (Pawn..Gold). Index 0 is unused.
type Hand [King]uint8

// Count returns the number of pieces of type pt.
func (h Hand) Count(pt PieceType) int {
	if pt == NoPieceType || pt >= King {
		return 0
	}
	return int(h[pt])
}

// Add puts one piece of type pt into the hand.
func (h *Hand) Add(pt PieceType) {
	h[pt]++
}

// Remove takes one piece of type pt out of the hand.
func (h *Hand) Remove(pt PieceType) {
	h[pt]--
}

// IsEmpty reports whether the hand holds nothing.
func (h Hand) IsEmpty() bool {
	return h == Hand{}
}

// Total returns the number of pieces in hand.
func (h Hand) Total() int {
	n := 0
	for pt := Pawn; pt < King; pt++ {
		n += int(h[pt])
	}
	return n
}

// Covers reports whether h holds at least as many of every type as o.
func (h Hand) Covers(o Hand) bool {
	for pt := Pawn; pt < King; pt++ {
		if h[pt] < o[pt] {
			return false
		}
	}
	return true
}

// String returns the SFEN fragment for one side, uppercase.
func (h Hand) String() string {
	var sb strings.Builder
	for _, pt := range handTypes {
		n := h[pt]
		if n == 0 {
			continue
		}
		if n > 1 {
			fmt.Fprintf(&sb, "%d", n)
		}
		sb.WriteByte(pt.Char())
	}
	return sb.String()
}
