package board

import (
	"slices"
	"testing"
)

func mustState(t *testing.T, sfen string) *State {
	t.Helper()
	pos, err := ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("ParseSFEN(%q): %v", sfen, err)
	}
	s, err := NewStateBuilder(pos).Build()
	if err != nil {
		t.Fatalf("Build(%q): %v", sfen, err)
	}
	return s
}

// The oracle below moves pieces with its own (file, rank) deltas and walks
// slides over p.Board, so it shares no tables with the generator.
// Deltas are seen from Black; rank -1 points towards rank "a".
var (
	oracleOrth  = [][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	oracleDiag  = [][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	oracleGold  = [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}}
	oracleSteps = map[PieceType][][2]int{
		Pawn:      {{0, -1}},
		Knight:    {{-1, -2}, {1, -2}},
		Silver:    {{-1, -1}, {0, -1}, {1, -1}, {-1, 1}, {1, 1}},
		Gold:      oracleGold,
		King:      append(append([][2]int{}, oracleOrth...), oracleDiag...),
		ProPawn:   oracleGold,
		ProLance:  oracleGold,
		ProKnight: oracleGold,
		ProSilver: oracleGold,
		Horse:     oracleOrth,
		Dragon:    oracleDiag,
	}
	oracleSlides = map[PieceType][][2]int{
		Lance:  {{0, -1}},
		Bishop: oracleDiag,
		Rook:   oracleOrth,
		Horse:  oracleDiag,
		Dragon: oracleOrth,
	}
	oraclePromotable = map[PieceType]bool{
		Pawn: true, Lance: true, Knight: true, Silver: true, Bishop: true, Rook: true,
	}
)

func oracleInside(f, r int) bool {
	return f >= 0 && f < NumFiles && r >= 0 && r < NumRanks
}

// oracleRank returns the rank of sq counted from c's far edge.
func oracleRank(sq Square, c Color) int {
	if c == Black {
		return sq.Rank()
	}
	return NumRanks - 1 - sq.Rank()
}

// oracleDeadRanks is how many far ranks pt can never leave.
func oracleDeadRanks(pt PieceType) int {
	switch pt {
	case Pawn, Lance:
		return 1
	case Knight:
		return 2
	}
	return 0
}

// oracleTargets lists the squares the piece on from attacks.
func oracleTargets(p *Position, from Square) []Square {
	pc := p.Board[from]
	sign := 1
	if pc.Color() == White {
		sign = -1
	}
	f0, r0 := from.File(), from.Rank()

	var targets []Square
	for _, d := range oracleSteps[pc.Type()] {
		if f, r := f0+d[0]*sign, r0+d[1]*sign; oracleInside(f, r) {
			targets = append(targets, NewSquare(f, r))
		}
	}
	for _, d := range oracleSlides[pc.Type()] {
		df, dr := d[0]*sign, d[1]*sign
		for f, r := f0+df, r0+dr; oracleInside(f, r); f, r = f+df, r+dr {
			sq := NewSquare(f, r)
			targets = append(targets, sq)
			if p.Board[sq] != NoPiece {
				break
			}
		}
	}
	return targets
}

// attackedByScan tests sq against every piece of color by, one at a time.
func attackedByScan(p *Position, sq Square, by Color) bool {
	for s := Square(0); s < NumSquares; s++ {
		pc := p.Board[s]
		if pc != NoPiece && pc.Color() == by && slices.Contains(oracleTargets(p, s), sq) {
			return true
		}
	}
	return false
}

// oraclePseudoLegal applies the movement and drop rules, ignoring king safety.
func oraclePseudoLegal(p *Position, m Move32) bool {
	us := p.SideToMove
	to := m.To()

	if m.IsDrop() {
		pt := m.DropType()
		if p.Hands[us][pt] == 0 || p.Board[to] != NoPiece || oracleRank(to, us) < oracleDeadRanks(pt) {
			return false
		}
		if pt == Pawn {
			for r := 0; r < NumRanks; r++ {
				if p.Board[NewSquare(to.File(), r)] == NewPiece(Pawn, us) {
					return false
				}
			}
		}
		return true
	}

	from := m.From()
	pc := p.Board[from]
	if pc == NoPiece || pc.Color() != us {
		return false
	}
	if target := p.Board[to]; target != NoPiece && target.Color() == us {
		return false
	}
	if !slices.Contains(oracleTargets(p, from), to) {
		return false
	}
	if m.IsPromotion() {
		return oraclePromotable[pc.Type()] && (oracleRank(from, us) < 3 || oracleRank(to, us) < 3)
	}
	return oracleRank(to, us) >= oracleDeadRanks(pc.Type())
}

func oracleKingSafe(p *Position, m Move32) bool {
	us := p.SideToMove
	q := *p
	q.applyMove(m)
	return !attackedByScan(&q, q.KingSquare[us], us.Other())
}

func allCandidates(p *Position) []Move32 {
	var candidates []Move32
	for from := Square(0); from < NumSquares; from++ {
		pc := p.Board[from]
		if pc == NoPiece || pc.Color() != p.SideToMove {
			continue
		}
		for to := Square(0); to < NumSquares; to++ {
			candidates = append(candidates,
				NewBoardMove(from, to, pc.Type(), p.Board[to].Type(), false),
				NewBoardMove(from, to, pc.Type(), p.Board[to].Type(), true))
		}
	}
	for pt := Pawn; pt < King; pt++ {
		for to := Square(0); to < NumSquares; to++ {
			candidates = append(candidates, NewDropMove(to, pt))
		}
	}
	return candidates
}

func oracleDropMate(p *Position, m Move32) bool {
	if !m.IsDrop() || m.DropType() != Pawn {
		return false
	}
	us := p.SideToMove
	q := *p
	q.applyMove(m)
	if !attackedByScan(&q, q.KingSquare[us.Other()], us) {
		return false
	}
	for _, r := range allCandidates(&q) {
		if oraclePseudoLegal(&q, r) && oracleKingSafe(&q, r) {
			return false
		}
	}
	return true
}

// oracleLegalMoves enumerates every encodable move and keeps the legal ones.
func oracleLegalMoves(p *Position) map[Move32]bool {
	legal := make(map[Move32]bool)
	for _, m := range allCandidates(p) {
		if oraclePseudoLegal(p, m) && oracleKingSafe(p, m) && !oracleDropMate(p, m) {
			legal[m] = true
		}
	}
	return legal
}

func TestOracleStartPosition(t *testing.T) {
	if n := len(oracleLegalMoves(NewPosition())); n != 30 {
		t.Errorf("oracle finds %d moves in the start position, want 30", n)
	}
}

func TestLegalMovesMatchOracle(t *testing.T) {
	tests := []struct {
		name string
		sfen string
	}{
		{"start", StartSFEN},
		{"middlegame", "lnsgk2nl/1r4gs1/p1pppp1pp/1p4p2/7P1/2P6/PP1PPPP1P/1SG4R1/LN2KGSNL b Bb 1"},
		{"pin", "4r3k/9/9/9/9/9/9/4S4/4K4 b - 1"},
		{"check", "4k4/9/9/9/4r4/9/9/9/4K4 b G 1"},
		{"pawn drop mate", "6G1k/9/6S2/7N1/9/9/9/9/4K4 b P 1"},
		{"promotions", "k8/4P4/6N2/9/9/9/9/9/4K4 b - 1"},
		{"white to move", "4k4/9/4P4/9/9/9/9/9/4K4 w rb 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := mustState(t, tc.sfen)
			pos := s.Position()
			want := oracleLegalMoves(pos)
			got := pos.GenerateLegalMoves()

			seen := make(map[Move32]bool)
			for _, m := range got.Slice() {
				if seen[m] {
					t.Errorf("duplicate move %s", m)
				}
				seen[m] = true
				if !want[m] {
					t.Errorf("generated illegal move %s", m)
				}
				if !pos.IsLegal(m) {
					t.Errorf("IsLegal rejects generated move %s", m)
				}
			}
			for m := range want {
				if !seen[m] {
					t.Errorf("missing legal move %s", m)
				}
			}
		})
	}
}

func TestGenerationIsDeterministic(t *testing.T) {
	a := NewPosition().GenerateLegalMoves()
	b := NewPosition().GenerateLegalMoves()
	if a.String() != b.String() {
		t.Errorf("generation order differs:\n%s\n%s", a, b)
	}
}

func TestPinnedPieceMovesAlongPin(t *testing.T) {
	s := mustState(t, "4r3k/9/9/9/9/9/9/4S4/4K4 b - 1")
	from := MustParseSquare("5h")
	var fromPinned int
	for _, m := range s.GenerateLegalMoves().Slice() {
		if m.IsDrop() || m.From() != from {
			continue
		}
		fromPinned++
		if m.To() != MustParseSquare("5g") {
			t.Errorf("pinned silver left the file: %s", m)
		}
	}
	if fromPinned != 1 {
		t.Errorf("pinned silver has %d moves, want 1", fromPinned)
	}
}

func TestTwoPawnRule(t *testing.T) {
	s := mustState(t, "4k4/9/9/9/9/9/4P4/9/4K4 b P 1")
	fileFive := FileMask[4]
	drops := 0
	for _, m := range s.GenerateLegalMoves().Slice() {
		if !m.IsDrop() {
			continue
		}
		drops++
		if fileFive.IsSet(m.To()) {
			t.Errorf("pawn dropped on a file with a pawn: %s", m)
		}
		if m.To().Rank() == 0 {
			t.Errorf("pawn dropped on the last rank: %s", m)
		}
	}
	// Files 1-4 and 6-9, ranks b-i.
	if drops != 64 {
		t.Errorf("got %d pawn drops, want 64", drops)
	}
}

func TestDropRanks(t *testing.T) {
	s := mustState(t, "4k4/9/9/9/9/9/9/9/4K4 b NL 1")
	for _, m := range s.GenerateLegalMoves().Slice() {
		if !m.IsDrop() {
			continue
		}
		rank := m.To().Rank()
		switch m.DropType() {
		case Knight:
			if rank < 2 {
				t.Errorf("knight dropped on %s", m.To())
			}
		case Lance:
			if rank < 1 {
				t.Errorf("lance dropped on %s", m.To())
			}
		}
	}
}

func TestPawnDropMate(t *testing.T) {
	drop := NewDropMove(MustParseSquare("1b"), Pawn)

	mate := mustState(t, "6G1k/9/6S2/7N1/9/9/9/9/4K4 b P 1")
	if mate.GenerateLegalMoves().Contains(drop) {
		t.Error("mating pawn drop generated")
	}
	if mate.IsLegal(drop) {
		t.Error("mating pawn drop accepted by IsLegal")
	}
	if err := mate.DoMove(drop); err == nil {
		t.Error("DoMove accepted a mating pawn drop")
	}

	// Without the silver the king escapes to 2b, so the drop is only a check.
	check := mustState(t, "6G1k/9/9/7N1/9/9/9/9/4K4 b P 1")
	if !check.GenerateLegalMoves().Contains(drop) {
		t.Error("checking pawn drop missing")
	}
	if !check.Position().GivesCheck(drop) {
		t.Error("pawn drop should give check")
	}
}

func TestForcedPromotion(t *testing.T) {
	s := mustState(t, "k8/4P4/6N2/9/9/9/9/9/4K4 b - 1")
	pawn := MustParseSquare("5b")
	knight := MustParseSquare("3c")
	for _, m := range s.GenerateLegalMoves().Slice() {
		if m.IsDrop() {
			continue
		}
		if (m.From() == pawn || m.From() == knight) && !m.IsPromotion() {
			t.Errorf("move %s must promote", m)
		}
	}
}

func TestGivesCheck(t *testing.T) {
	s := mustState(t, "4k4/9/4P4/9/9/9/9/9/4K4 b G 1")
	pos := s.Position()
	checks := pos.GenerateCheckMoves()
	for _, m := range pos.GenerateLegalMoves().Slice() {
		s.MakeMove(m)
		inCheck := s.InCheck()
		s.UnmakeMove()
		if inCheck != checks.Contains(m) {
			t.Errorf("move %s: in check after move %v, listed as check %v", m, inCheck, checks.Contains(m))
		}
	}
	if !checks.Contains(NewDropMove(MustParseSquare("5b"), Gold)) {
		t.Error("G*5b should be a checking move")
	}
}

func TestDiscoveredCheck(t *testing.T) {
	// Black lance on 5i behind a silver on 5e; moving the silver uncovers the king on 5a.
	s := mustState(t, "4k4/9/9/9/4S4/9/9/9/3KL4 b - 1")
	m, err := ParseMove("5e4d", s.Position())
	if err != nil {
		t.Fatal(err)
	}
	if !s.Position().GivesCheck(m) {
		t.Error("silver move should uncover check")
	}
}

func TestMove32FromMove16(t *testing.T) {
	s := mustState(t, "lnsgk2nl/1r4gs1/p1pppp1pp/1p4p2/7P1/2P6/PP1PPPP1P/1SG4R1/LN2KGSNL b Bb 1")
	for _, m := range s.GenerateLegalMoves().Slice() {
		if got := s.Move32FromMove16(m.Move16()); got != m {
			t.Errorf("Move32FromMove16(%s) = %s (%x), want %x", m, got, uint32(got), uint32(m))
		}
	}
}

func TestParseMove(t *testing.T) {
	pos := NewPosition()
	tests := []struct {
		in   string
		want Move32
	}{
		{"7g7f", NewBoardMove(MustParseSquare("7g"), MustParseSquare("7f"), Pawn, NoPieceType, false)},
		{"8h2b+", NewBoardMove(MustParseSquare("8h"), MustParseSquare("2b"), Bishop, Bishop, true)},
		{"P*5e", NewDropMove(MustParseSquare("5e"), Pawn)},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMove(tc.in, pos)
			if err != nil {
				t.Fatalf("ParseMove: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
			if got.String() != tc.in {
				t.Errorf("String() = %s, want %s", got, tc.in)
			}
		})
	}

	for _, bad := range []string{"", "7g", "0a1a", "7g7f=", "K*5e", "5e5d"} {
		if _, err := ParseMove(bad, pos); err == nil {
			t.Errorf("ParseMove(%q) should fail", bad)
		}
	}
}
