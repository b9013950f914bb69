package board

import (
	"fmt"
	"strings"
)

// Position represents a shogi position: the board, both hands and the side to move.
// Board, Hands and SideToMove are authoritative; the remaining fields are caches
// kept in sync by the mutators.
type Position struct {
	// Mailbox board
	Board [NumSquares]Piece

	// Piece bitboards: [Color][PieceType]
	Pieces [2][NumPieceTypes]Bitboard

	// Occupancy bitboards (cached for efficiency)
	Occupied    [2]Bitboard // All pieces of each color
	AllOccupied Bitboard    // All pieces on the board

	// Pieces in hand
	Hands [2]Hand

	SideToMove Color

	// King positions (cached for check detection)
	KingSquare [2]Square

	// Zobrist hash of board and side to move. Hands are excluded, see Key.
	Hash uint64
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseSFEN(StartSFEN)
	return pos
}

// NewEmptyPosition creates a position with no pieces, Black to move.
func NewEmptyPosition() *Position {
	p := &Position{}
	p.Clear()
	return p
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{}
	p.KingSquare[Black] = NoSquare
	p.KingSquare[White] = NoSquare
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Board[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Board[sq] == NoPiece
}

// Put places a piece on an empty square.
func (p *Position) Put(sq Square, pc Piece) error {
	if !sq.IsValid() {
		return fmt.Errorf("%w: square %d off board", ErrInvalidPosition, sq)
	}
	if pc == NoPiece || pc.Type() >= NumPieceTypes || pc.Color() >= NoColor {
		return fmt.Errorf("%w: bad piece %d", ErrInvalidPosition, pc)
	}
	if p.Board[sq] != NoPiece {
		return fmt.Errorf("%w: square %s occupied", ErrInvalidPosition, sq)
	}
	p.putPiece(pc, sq)
	return nil
}

// Remove takes the piece off a square and returns it.
func (p *Position) Remove(sq Square) Piece {
	if !sq.IsValid() || p.Board[sq] == NoPiece {
		return NoPiece
	}
	return p.removePiece(sq)
}

// SetHandCount sets the number of pieces of type pt in the hand of c.
func (p *Position) SetHandCount(c Color, pt PieceType, n int) error {
	if pt == NoPieceType || pt >= King || n < 0 || n > maxPieceCount[pt] {
		return fmt.Errorf("%w: bad hand entry %s x%d", ErrInvalidPosition, pt, n)
	}
	p.Hands[c][pt] = uint8(n)
	return nil
}

// SetSideToMove sets the side to move and keeps the hash in sync.
func (p *Position) SetSideToMove(c Color) {
	if p.SideToMove != c {
		p.SideToMove = c
		p.Hash ^= zobristSideToMove
	}
}

// putPiece places a piece on an empty square, updating caches and hash.
func (p *Position) putPiece(pc Piece, sq Square) {
	c, pt := pc.Color(), pc.Type()
	p.Board[sq] = pc
	p.Pieces[c][pt] = p.Pieces[c][pt].Set(sq)
	p.Occupied[c] = p.Occupied[c].Set(sq)
	p.AllOccupied = p.AllOccupied.Set(sq)
	p.Hash ^= zobristPiece[c][pt][sq]
	if pt == King {
		p.KingSquare[c] = sq
	}
}

// removePiece empties an occupied square, updating caches and hash.
func (p *Position) removePiece(sq Square) Piece {
	pc := p.Board[sq]
	c, pt := pc.Color(), pc.Type()
	p.Board[sq] = NoPiece
	p.Pieces[c][pt] = p.Pieces[c][pt].Clear(sq)
	p.Occupied[c] = p.Occupied[c].Clear(sq)
	p.AllOccupied = p.AllOccupied.Clear(sq)
	p.Hash ^= zobristPiece[c][pt][sq]
	if pt == King {
		p.KingSquare[c] = NoSquare
	}
	return pc
}

// refresh rebuilds every cache from Board and SideToMove.
func (p *Position) refresh() {
	board, hands, stm := p.Board, p.Hands, p.SideToMove
	p.Clear()
	p.Hands = hands
	for sq := Square(0); sq < NumSquares; sq++ {
		if pc := board[sq]; pc != NoPiece {
			p.putPiece(pc, sq)
		}
	}
	p.SetSideToMove(stm)
}

// applyMove plays m, which must be legal. Hands, caches and hash follow.
func (p *Position) applyMove(m Move32) {
	us := p.SideToMove
	to := m.To()
	if m.IsDrop() {
		pt := m.DropType()
		p.Hands[us].Remove(pt)
		p.putPiece(NewPiece(pt, us), to)
	} else {
		pc := p.removePiece(m.From())
		if p.Board[to] != NoPiece {
			captured := p.removePiece(to)
			p.Hands[us].Add(captured.Type().Demote())
		}
		if m.IsPromotion() {
			pc = NewPiece(pc.Type().Promote(), us)
		}
		p.putPiece(pc, to)
	}
	p.SideToMove = us.Other()
	p.Hash ^= zobristSideToMove
}

// undoMove reverts applyMove(m). m must carry its piece and capture types.
func (p *Position) undoMove(m Move32) {
	them := p.SideToMove
	us := them.Other()
	p.SideToMove = us
	p.Hash ^= zobristSideToMove

	to := m.To()
	p.removePiece(to)
	if m.IsDrop() {
		p.Hands[us].Add(m.DropType())
		return
	}
	p.putPiece(NewPiece(m.PieceType(), us), m.From())
	if captured := m.Captured(); captured != NoPieceType {
		p.putPiece(NewPiece(captured, them), to)
		p.Hands[us].Remove(captured.Demote())
	}
}

// pieceCounts returns the number of pieces per base type on board and in hands.
func (p *Position) pieceCounts() [NumPieceTypes]int {
	var counts [NumPieceTypes]int
	for sq := Square(0); sq < NumSquares; sq++ {
		if pc := p.Board[sq]; pc != NoPiece {
			counts[pc.Type().Demote()]++
		}
	}
	for c := Black; c <= White; c++ {
		for pt := Pawn; pt < King; pt++ {
			counts[pt] += int(p.Hands[c][pt])
		}
	}
	return counts
}

// MissingPieces returns the pieces absent from both board and hands.
func (p *Position) MissingPieces() Hand {
	counts := p.pieceCounts()
	var h Hand
	for pt := Pawn; pt < King; pt++ {
		if n := maxPieceCount[pt] - counts[pt]; n > 0 {
			h[pt] = uint8(n)
		}
	}
	return h
}

// HasFullMaterial reports whether all 40 pieces are on the board or in hand.
func (p *Position) HasFullMaterial() bool {
	return p.MissingPieces().IsEmpty() &&
		p.Pieces[Black][King].PopCount() == 1 && p.Pieces[White][King].PopCount() == 1
}

// isDeadSquare reports whether a piece of type pt and color c on sq could never move again.
func isDeadSquare(pt PieceType, c Color, sq Square) bool {
	switch pt {
	case Pawn, Lance:
		return sq.RelativeRank(c) == 0
	case Knight:
		return sq.RelativeRank(c) < 2
	}
	return false
}

// checkPieces rejects piece codes and hand counts outside their ranges.
func (p *Position) checkPieces() error {
	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.Board[sq]
		if pc != NoPiece && (pc >= PieceLimit || pc.Type() == NoPieceType || pc.Type() >= NumPieceTypes) {
			return fmt.Errorf("%w: bad piece code %d on %s", ErrInvalidPosition, pc, sq)
		}
	}
	for c := Black; c <= White; c++ {
		for pt := Pawn; pt < King; pt++ {
			if int(p.Hands[c][pt]) > maxPieceCount[pt] {
				return fmt.Errorf("%w: %s holds %d %s", ErrInvalidPosition, c, p.Hands[c][pt], pt)
			}
		}
	}
	return nil
}

// Validate checks the structural invariants of the position.
func (p *Position) Validate() error {
	if p.SideToMove >= NoColor {
		return fmt.Errorf("%w: bad side to move", ErrInvalidPosition)
	}

	if err := p.checkPieces(); err != nil {
		return err
	}

	q := *p
	q.refresh()
	if q.Pieces != p.Pieces || q.Occupied != p.Occupied || q.Hash != p.Hash || q.KingSquare != p.KingSquare {
		return fmt.Errorf("%w: caches out of sync with board", ErrInvalidPosition)
	}

	for c := Black; c <= White; c++ {
		if p.Pieces[c][King].PopCount() != 1 {
			return fmt.Errorf("%w: %s must have exactly one king", ErrInvalidPosition, c)
		}
	}

	counts := p.pieceCounts()
	for pt := Pawn; pt <= King; pt++ {
		if counts[pt] > maxPieceCount[pt] {
			return fmt.Errorf("%w: %d %s exceed the set of %d", ErrInvalidPosition, counts[pt], pt, maxPieceCount[pt])
		}
	}

	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.Board[sq]
		if pc != NoPiece && isDeadSquare(pc.Type(), pc.Color(), sq) {
			return fmt.Errorf("%w: %s on %s can never move", ErrInvalidPosition, pc, sq)
		}
	}

	for c := Black; c <= White; c++ {
		for f := 0; f < NumFiles; f++ {
			if p.Pieces[c][Pawn].And(FileMask[f]).PopCount() > 1 {
				return fmt.Errorf("%w: %s has two pawns on file %d", ErrInvalidPosition, c, f+1)
			}
		}
	}

	them := p.SideToMove.Other()
	if p.IsSquareAttacked(p.KingSquare[them], p.SideToMove) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidPosition)
	}

	return nil
}

// Equal reports whether two positions have the same board, hands and side to move.
func (p *Position) Equal(o *Position) bool {
	return p.Board == o.Board && p.Hands == o.Hands && p.SideToMove == o.SideToMove
}

// ComputePinned computes pieces of the side to move pinned to their king.
// Snipers are enemy rooks, bishops, their promoted forms and lances.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	pcs := &p.Pieces[them]

	snipers := RookAttacks(ksq, Empty).And(pcs[Rook].Or(pcs[Dragon]))
	snipers = snipers.Or(BishopAttacks(ksq, Empty).And(pcs[Bishop].Or(pcs[Horse])))
	snipers = snipers.Or(LanceAttacks(us, ksq, Empty).And(pcs[Lance]))

	var pinned Bitboard
	for snipers.More() {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq).And(p.AllOccupied)
		if blockers.PopCount() == 1 && blockers.And(p.Occupied[us]).More() {
			pinned = pinned.Or(blockers)
		}
	}
	return pinned
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nWhite hand: %s\n", p.Hands[White])
	for rank := 0; rank < NumRanks; rank++ {
		for file := NumFiles - 1; file >= 0; file-- {
			pc := p.Board[NewSquare(file, rank)]
			switch {
			case pc == NoPiece:
				sb.WriteString("  .")
			case pc.Type().IsPromoted():
				fmt.Fprintf(&sb, " %s", pc)
			default:
				fmt.Fprintf(&sb, "  %s", pc)
			}
		}
		fmt.Fprintf(&sb, "  %c\n", 'a'+rank)
	}
	sb.WriteString("  9  8  7  6  5  4  3  2  1\n")
	fmt.Fprintf(&sb, "Black hand: %s\n", p.Hands[Black])
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}
