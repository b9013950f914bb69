package board

// Ray directions as (file, rank) deltas. dirUp points towards rank "a".
const (
	dirUp = iota
	dirDown
	dirRight
	dirLeft
	dirUpRight
	dirUpLeft
	dirDownRight
	dirDownLeft
	numDirs
)

var dirDelta = [numDirs][2]int{
	dirUp:        {0, -1},
	dirDown:      {0, 1},
	dirRight:     {-1, 0},
	dirLeft:      {1, 0},
	dirUpRight:   {-1, -1},
	dirUpLeft:    {1, -1},
	dirDownRight: {-1, 1},
	dirDownLeft:  {1, 1},
}

// Step patterns seen from Black; White uses the rotated pattern.
var stepDeltas = map[PieceType][][2]int{
	Pawn:   {{0, -1}},
	Knight: {{-1, -2}, {1, -2}},
	Silver: {{-1, -1}, {0, -1}, {1, -1}, {-1, 1}, {1, 1}},
	Gold:   {{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}},
	King:   {{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}},
}

// Pre-computed attack tables
var (
	stepAttacks [2][NumPieceTypes][NumSquares]Bitboard // [Color][PieceType][Square]
	rays        [NumSquares][numDirs][]Square

	// Between bitboards for pins and interpositions
	betweenBB [NumSquares][NumSquares]Bitboard
)

func init() {
	initStepAttacks()
	initRays()
	initBetweenBB()
}

func onBoard(f, r int) bool {
	return f >= 0 && f < NumFiles && r >= 0 && r < NumRanks
}

func initStepAttacks() {
	for pt, deltas := range stepDeltas {
		for sq := Square(0); sq < NumSquares; sq++ {
			for _, d := range deltas {
				if f, r := sq.File()+d[0], sq.Rank()+d[1]; onBoard(f, r) {
					stepAttacks[Black][pt][sq] = stepAttacks[Black][pt][sq].Set(NewSquare(f, r))
				}
				if f, r := sq.File()-d[0], sq.Rank()-d[1]; onBoard(f, r) {
					stepAttacks[White][pt][sq] = stepAttacks[White][pt][sq].Set(NewSquare(f, r))
				}
			}
		}
	}
	for c := Black; c <= White; c++ {
		for pt := ProPawn; pt <= ProSilver; pt++ {
			stepAttacks[c][pt] = stepAttacks[c][Gold]
		}
	}
}

func initRays() {
	for sq := Square(0); sq < NumSquares; sq++ {
		for dir, d := range dirDelta {
			for f, r := sq.File()+d[0], sq.Rank()+d[1]; onBoard(f, r); f, r = f+d[0], r+d[1] {
				rays[sq][dir] = append(rays[sq][dir], NewSquare(f, r))
			}
		}
	}
}

func initBetweenBB() {
	for sq := Square(0); sq < NumSquares; sq++ {
		for _, ray := range rays[sq] {
			var between Bitboard
			for _, to := range ray {
				betweenBB[sq][to] = between
				between = between.Set(to)
			}
		}
	}
}

// slide casts a ray until the first occupied square, which is included.
func slide(sq Square, dir int, occupied Bitboard) Bitboard {
	var bb Bitboard
	for _, to := range rays[sq][dir] {
		bb = bb.Set(to)
		if occupied.IsSet(to) {
			break
		}
	}
	return bb
}

// StepAttacks returns the attacks of a non-sliding piece of color c on sq.
func StepAttacks(pt PieceType, c Color, sq Square) Bitboard {
	return stepAttacks[c][pt][sq]
}

// LanceAttacks returns the attacks of a lance of color c on sq.
func LanceAttacks(c Color, sq Square, occupied Bitboard) Bitboard {
	if c == Black {
		return slide(sq, dirUp, occupied)
	}
	return slide(sq, dirDown, occupied)
}

// BishopAttacks returns bishop attacks from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, dirUpRight, occupied).
		Or(slide(sq, dirUpLeft, occupied)).
		Or(slide(sq, dirDownRight, occupied)).
		Or(slide(sq, dirDownLeft, occupied))
}

// RookAttacks returns rook attacks from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, dirUp, occupied).
		Or(slide(sq, dirDown, occupied)).
		Or(slide(sq, dirRight, occupied)).
		Or(slide(sq, dirLeft, occupied))
}

// AttacksFrom returns the squares a piece of type pt and color c on sq attacks.
func AttacksFrom(pt PieceType, c Color, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Lance:
		return LanceAttacks(c, sq, occupied)
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Horse:
		return BishopAttacks(sq, occupied).Or(stepAttacks[c][King][sq])
	case Dragon:
		return RookAttacks(sq, occupied).Or(stepAttacks[c][King][sq])
	default:
		return stepAttacks[c][pt][sq]
	}
}

// Between returns squares strictly between two squares on a shared line.
func Between(sq1, sq2 Square) Bitboard {
	return betweenBB[sq1][sq2]
}

// AttackersTo returns the pieces of color c attacking sq, given the occupancy.
// A piece of c attacks sq exactly when the same piece of the other color
// standing on sq would attack it back.
func (p *Position) AttackersTo(sq Square, c Color, occupied Bitboard) Bitboard {
	them := c.Other()
	pcs := &p.Pieces[c]

	attackers := stepAttacks[them][Pawn][sq].And(pcs[Pawn])
	attackers = attackers.Or(stepAttacks[them][Knight][sq].And(pcs[Knight]))
	attackers = attackers.Or(stepAttacks[them][Silver][sq].And(pcs[Silver]))
	attackers = attackers.Or(stepAttacks[them][Gold][sq].And(p.goldMovers(c)))
	attackers = attackers.Or(stepAttacks[them][King][sq].And(pcs[King].Or(pcs[Horse]).Or(pcs[Dragon])))
	attackers = attackers.Or(LanceAttacks(them, sq, occupied).And(pcs[Lance]))
	attackers = attackers.Or(BishopAttacks(sq, occupied).And(pcs[Bishop].Or(pcs[Horse])))
	attackers = attackers.Or(RookAttacks(sq, occupied).And(pcs[Rook].Or(pcs[Dragon])))
	return attackers.And(occupied)
}

// IsSquareAttacked returns true if the square is attacked by the given color.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersTo(sq, byColor, p.AllOccupied).More()
}

// Checkers returns the enemy pieces giving check to the side to move.
func (p *Position) Checkers() Bitboard {
	us := p.SideToMove
	return p.AttackersTo(p.KingSquare[us], us.Other(), p.AllOccupied)
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers().More()
}

func (p *Position) goldMovers(c Color) Bitboard {
	pcs := &p.Pieces[c]
	return pcs[Gold].Or(pcs[ProPawn]).Or(pcs[ProLance]).Or(pcs[ProKnight]).Or(pcs[ProSilver])
}
