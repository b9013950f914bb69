package board

// GenerateLegalMoves generates all legal moves for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml, true)
	return p.filterLegalMoves(ml)
}

// GeneratePseudoLegalMoves generates all pseudo-legal moves (may leave king in check).
// Drop rules, including the pawn-drop mate rule, are already applied.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml, true)
	return ml
}

// GenerateEvasions generates the legal replies to a check.
// Out of check it is the same as GenerateLegalMoves.
func (p *Position) GenerateEvasions() *MoveList {
	return p.GenerateLegalMoves()
}

// GenerateCheckMoves generates the legal moves that give check.
func (p *Position) GenerateCheckMoves() *MoveList {
	legal := p.GenerateLegalMoves()
	result := NewMoveList()
	for _, m := range legal.Slice() {
		if p.GivesCheck(m) {
			result.Add(m)
		}
	}
	return result
}

// generateAllMoves generates pseudo-legal board moves and, optionally, drops.
func (p *Position) generateAllMoves(ml *MoveList, withDrops bool) {
	us := p.SideToMove
	occupied := p.AllOccupied
	targets := p.Occupied[us].Not()

	for pt := Pawn; pt < NumPieceTypes; pt++ {
		pieces := p.Pieces[us][pt]
		for pieces.More() {
			from := pieces.PopLSB()
			attacks := AttacksFrom(pt, us, from, occupied).And(targets)
			for attacks.More() {
				p.addBoardMoves(ml, us, pt, from, attacks.PopLSB())
			}
		}
	}

	if withDrops {
		p.generateDrops(ml, us, occupied.Not())
	}
}

// addBoardMoves adds the promoting and/or non-promoting forms of a board move.
func (p *Position) addBoardMoves(ml *MoveList, us Color, pt PieceType, from, to Square) {
	captured := p.Board[to].Type()
	if pt.CanPromote() && (from.InPromotionZone(us) || to.InPromotionZone(us)) {
		ml.Add(NewBoardMove(from, to, pt, captured, true))
	}
	// Pawns, lances and knights must promote where they could never move again.
	if !isDeadSquare(pt, us, to) {
		ml.Add(NewBoardMove(from, to, pt, captured, false))
	}
}

// dropForbidden returns the squares where a piece of type pt may never be dropped.
func dropForbidden(pt PieceType, c Color) Bitboard {
	last, second := 0, 1
	if c == White {
		last, second = NumRanks-1, NumRanks-2
	}
	switch pt {
	case Pawn, Lance:
		return RankMask[last]
	case Knight:
		return RankMask[last].Or(RankMask[second])
	}
	return Empty
}

// generateDrops generates drops of every piece type held by us onto empty squares.
func (p *Position) generateDrops(ml *MoveList, us Color, empty Bitboard) {
	hand := p.Hands[us]
	enemyKing := p.KingSquare[us.Other()]

	for _, pt := range handTypes {
		if hand[pt] == 0 {
			continue
		}
		targets := empty.AndNot(dropForbidden(pt, us))
		if pt == Pawn {
			targets = targets.AndNot(p.pawnFiles(us))
		}
		for targets.More() {
			to := targets.PopLSB()
			if pt == Pawn && StepAttacks(Pawn, us, to).IsSet(enemyKing) && p.isPawnDropMate(to) {
				continue
			}
			ml.Add(NewDropMove(to, pt))
		}
	}
}

// pawnFiles returns the files holding an unpromoted pawn of c.
func (p *Position) pawnFiles(c Color) Bitboard {
	var files Bitboard
	pawns := p.Pieces[c][Pawn]
	for pawns.More() {
		files = files.Or(FileMask[pawns.PopLSB().File()])
	}
	return files
}

// isPawnDropMate reports whether dropping a pawn on to checkmates the opponent.
// The defender's replies are board moves only: a contact check cannot be blocked.
func (p *Position) isPawnDropMate(to Square) bool {
	q := *p
	q.applyMove(NewDropMove(to, Pawn))

	ml := NewMoveList()
	q.generateAllMoves(ml, false)
	for _, m := range ml.Slice() {
		if q.kingSafeAfter(m) {
			return false
		}
	}
	return true
}

// filterLegalMoves filters out illegal moves.
// Out of check, drops and non-pinned non-king moves are automatically legal.
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	result := NewMoveList()
	pinned := p.ComputePinned() // Compute once for all moves
	ksq := p.KingSquare[p.SideToMove]
	inCheck := p.InCheck()

	for _, m := range ml.Slice() {
		if !inCheck && (m.IsDrop() || (m.From() != ksq && !pinned.IsSet(m.From()))) {
			result.Add(m)
			continue
		}
		if p.kingSafeAfter(m) {
			result.Add(m)
		}
	}

	return result
}

// kingSafeAfter reports whether our king is not attacked once m is played.
// Checks the post-move occupancy without touching the position.
func (p *Position) kingSafeAfter(m Move32) bool {
	us := p.SideToMove
	them := us.Other()
	to := m.To()
	toBB := SquareBB(to)
	ksq := p.KingSquare[us]

	if m.IsDrop() {
		return p.AttackersTo(ksq, them, p.AllOccupied.Or(toBB)).IsZero()
	}

	from := m.From()
	occ := p.AllOccupied.Clear(from).Or(toBB)
	if from == ksq {
		ksq = to
	}
	// A captured piece on to no longer attacks.
	return p.AttackersTo(ksq, them, occ).AndNot(toBB).IsZero()
}

// IsPseudoLegal reports whether m is consistent with the position and the
// movement and drop rules, ignoring king safety and the pawn-drop mate rule.
func (p *Position) IsPseudoLegal(m Move32) bool {
	if m == MoveNone || m>>(moveCaptureShift+4) != 0 {
		return false
	}
	us := p.SideToMove
	to := m.To()
	if !to.IsValid() {
		return false
	}

	if m.IsDrop() {
		pt := m.DropType()
		if pt < Pawn || pt >= King || m.PieceType() != pt || m.IsPromotion() || m.IsCapture() {
			return false
		}
		if p.Hands[us][pt] == 0 || p.Board[to] != NoPiece || dropForbidden(pt, us).IsSet(to) {
			return false
		}
		return pt != Pawn || !p.pawnFiles(us).IsSet(to)
	}

	from := m.From()
	pc := p.Board[from]
	if pc == NoPiece || pc.Color() != us || pc.Type() != m.PieceType() {
		return false
	}
	target := p.Board[to]
	if (target != NoPiece && target.Color() == us) || target.Type() != m.Captured() {
		return false
	}
	pt := pc.Type()
	if !AttacksFrom(pt, us, from, p.AllOccupied).IsSet(to) {
		return false
	}
	if m.IsPromotion() {
		return pt.CanPromote() && (from.InPromotionZone(us) || to.InPromotionZone(us))
	}
	return !isDeadSquare(pt, us, to)
}

// IsLegal returns true if the move is legal in the position.
func (p *Position) IsLegal(m Move32) bool {
	if !p.IsPseudoLegal(m) || !p.kingSafeAfter(m) {
		return false
	}
	if m.IsDrop() && m.DropType() == Pawn {
		us := p.SideToMove
		if StepAttacks(Pawn, us, m.To()).IsSet(p.KingSquare[us.Other()]) && p.isPawnDropMate(m.To()) {
			return false
		}
	}
	return true
}

// GivesCheck reports whether the legal move m checks the opponent's king,
// directly or by discovery.
func (p *Position) GivesCheck(m Move32) bool {
	us := p.SideToMove
	enemyKing := p.KingSquare[us.Other()]
	to := m.To()

	if m.IsDrop() {
		occ := p.AllOccupied.Set(to)
		return AttacksFrom(m.DropType(), us, to, occ).IsSet(enemyKing)
	}

	from := m.From()
	pt := m.PieceType()
	if m.IsPromotion() {
		pt = pt.Promote()
	}
	occ := p.AllOccupied.Clear(from).Set(to)
	if AttacksFrom(pt, us, to, occ).IsSet(enemyKing) {
		return true
	}
	// Discovered check: a slider behind the moved piece.
	return p.AttackersTo(enemyKing, us, occ).Clear(from).More()
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	return p.GenerateLegalMoves().Len() > 0
}

// IsCheckmate returns true if the side to move is in check with no legal move.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}
