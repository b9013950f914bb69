package board

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// playRandom plays up to n pseudo-random legal moves and returns how many were played.
func playRandom(s *State, n int, seed uint64) int {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := 0; i < n; i++ {
		moves := s.GenerateLegalMoves()
		if moves.Len() == 0 {
			return i
		}
		s.MakeMove(moves.Get(rng.IntN(moves.Len())))
	}
	return n
}

func playUSI(t *testing.T, s *State, moves ...string) {
	t.Helper()
	for _, usi := range moves {
		m, err := ParseMove(usi, s.Position())
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", usi, err)
		}
		if err := s.DoMove(m); err != nil {
			t.Fatalf("DoMove(%s): %v", usi, err)
		}
	}
}

func TestDoUndoRestoresPosition(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		s := NewInitialState()
		start := *s.Position()
		played := playRandom(s, 120, seed)

		if err := s.Position().Validate(); err != nil {
			t.Fatalf("seed %d: invalid after %d plies: %v", seed, played, err)
		}
		if !s.Position().HasFullMaterial() {
			t.Fatalf("seed %d: material not conserved", seed)
		}
		if s.Ply() != played {
			t.Fatalf("seed %d: ply %d, played %d", seed, s.Ply(), played)
		}

		for i := 0; i < played; i++ {
			if _, err := s.UndoMove(); err != nil {
				t.Fatalf("seed %d: undo %d: %v", seed, i, err)
			}
		}
		if !s.Position().Equal(&start) || s.Position().Hash != start.Hash {
			t.Fatalf("seed %d: undo did not restore the start position", seed)
		}
	}
}

func TestReplayFromInitialPosition(t *testing.T) {
	s := NewInitialState()
	playRandom(s, 80, 42)

	initial := s.InitialPosition()
	replay, err := NewStateBuilder(&initial).Build()
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range s.Moves() {
		if m != s.HistoryMove(i) {
			t.Fatalf("HistoryMove(%d) = %s, want %s", i, s.HistoryMove(i), m)
		}
		if err := replay.DoMove(m); err != nil {
			t.Fatalf("replay move %d %s: %v", i, m, err)
		}
	}
	if !replay.Position().Equal(s.Position()) {
		t.Error("replayed history does not reach the current position")
	}
	if replay.Position().Key() != s.Position().Key() {
		t.Error("replayed key differs")
	}
}

func TestUndoEmptyHistory(t *testing.T) {
	s := NewInitialState()
	if _, err := s.UndoMove(); !errors.Is(err, ErrUnderflowUndo) {
		t.Errorf("UndoMove on empty history: got %v, want ErrUnderflowUndo", err)
	}
}

func TestDoMoveRejectsIllegal(t *testing.T) {
	s := NewInitialState()
	tests := []struct {
		name string
		move Move32
	}{
		{"none", MoveNone},
		{"pawn two squares", NewBoardMove(MustParseSquare("7g"), MustParseSquare("7e"), Pawn, NoPieceType, false)},
		{"wrong piece type", NewBoardMove(MustParseSquare("7g"), MustParseSquare("7f"), Lance, NoPieceType, false)},
		{"drop from empty hand", NewDropMove(MustParseSquare("5e"), Pawn)},
		{"promote outside zone", NewBoardMove(MustParseSquare("7g"), MustParseSquare("7f"), Pawn, NoPieceType, true)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.DoMove(tc.move); !errors.Is(err, ErrIllegalMove) {
				t.Errorf("got %v, want ErrIllegalMove", err)
			}
			if s.Ply() != 0 {
				t.Error("illegal move changed the history")
			}
		})
	}
}

func TestBuilderRejectsInvalidPositions(t *testing.T) {
	tests := []struct {
		name string
		sfen string
	}{
		{"no white king", "9/9/9/9/9/9/9/9/4K4 b - 1"},
		{"two black kings", "4k4/9/9/9/9/9/9/9/3KK4 b - 1"},
		{"two pawns on a file", "4k4/9/9/9/4P4/9/4P4/9/4K4 b - 1"},
		{"pawn on last rank", "P3k4/9/9/9/9/9/9/9/4K4 b - 1"},
		{"knight on second rank", "4k4/N8/9/9/9/9/9/9/4K4 b - 1"},
		{"opponent in check", "4k4/4G4/9/9/9/9/9/9/4K4 b - 1"},
		{"too many golds", "4k4/9/9/9/9/9/9/9/4K4 b 5G 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseSFEN(tc.sfen)
			if err != nil {
				// Hand overflow is caught while parsing.
				return
			}
			if _, err := NewStateBuilder(pos).Build(); !errors.Is(err, ErrInvalidPosition) {
				t.Errorf("Build: got %v, want ErrInvalidPosition", err)
			}
		})
	}
}

func TestRemainingPiecesInHand(t *testing.T) {
	pos, err := ParseSFEN("4k4/9/4P4/9/9/9/9/9/4K4 b G 1")
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewStateBuilder(pos).WithRemainingPiecesInHand(White).Build()
	if err != nil {
		t.Fatal(err)
	}
	p := s.Position()
	if !p.HasFullMaterial() {
		t.Fatal("material should be complete")
	}
	want := Hand{Pawn: 17, Lance: 4, Knight: 4, Silver: 4, Bishop: 2, Rook: 2, Gold: 3}
	if p.Hands[White] != want {
		t.Errorf("white hand = %s, want %s", p.Hands[White], want)
	}
	if p.Hands[Black] != (Hand{Gold: 1}) {
		t.Errorf("black hand changed: %s", p.Hands[Black])
	}
}

func TestRepetitionFourFold(t *testing.T) {
	s := NewInitialState()
	cycle := []string{"2h3h", "8b7b", "3h2h", "7b8b"}
	for round := 1; round <= 3; round++ {
		playUSI(t, s, cycle...)
		got := s.Repetition()
		want := NoRepetition
		if round == 3 {
			want = Repetition
		}
		if got != want {
			t.Errorf("after %d cycles: got %s, want %s", round, got, want)
		}
	}
}

func TestRepetitionFirst(t *testing.T) {
	cfg := DefaultStateConfig()
	cfg.Repetition = RepetitionFirst
	s, err := NewStateBuilder(NewPosition()).WithConfig(cfg).Build()
	if err != nil {
		t.Fatal(err)
	}
	playUSI(t, s, "2h3h", "8b7b", "3h2h")
	if got := s.Repetition(); got != NoRepetition {
		t.Errorf("mid cycle: got %s", got)
	}
	playUSI(t, s, "7b8b")
	if got := s.Repetition(); got != Repetition {
		t.Errorf("after one cycle: got %s, want draw", got)
	}
}

func TestPerpetualCheck(t *testing.T) {
	const sfen = "8k/9/9/9/9/9/9/9/4K2R1 b - 1"
	cycle := []string{"2i1i", "1a2a", "1i2i", "2a1a"}

	cfg := DefaultStateConfig()
	cfg.Repetition = RepetitionFirst

	pos, err := ParseSFEN(sfen)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewStateBuilder(pos).WithConfig(cfg).Build()
	if err != nil {
		t.Fatal(err)
	}
	playUSI(t, s, cycle...)
	if got := s.Repetition(); got != LossRepetition {
		t.Errorf("checking side to move: got %s, want loss", got)
	}
	playUSI(t, s, cycle[0])
	if got := s.Repetition(); got != WinRepetition {
		t.Errorf("checked side to move: got %s, want win", got)
	}

	cfg.PerpetualCheck = PerpetualCheckDraws
	s, err = NewStateBuilder(pos).WithConfig(cfg).Build()
	if err != nil {
		t.Fatal(err)
	}
	playUSI(t, s, cycle...)
	if got := s.Repetition(); got != Repetition {
		t.Errorf("draw rule: got %s, want draw", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewInitialState()
	playRandom(s, 10, 7)
	c := s.Clone()
	playRandom(c, 10, 8)
	if s.Ply() != 10 {
		t.Errorf("clone moves leaked into the original: ply %d", s.Ply())
	}
	for c.Ply() > 10 {
		c.UnmakeMove()
	}
	if !c.Position().Equal(s.Position()) {
		t.Error("clone diverged after undo")
	}
}

func TestCanDeclare(t *testing.T) {
	cfg := DefaultStateConfig()
	cfg.Ending = EndingDeclare27

	tests := []struct {
		name   string
		sfen   string
		ending EndingRule
		want   bool
	}{
		{"enough points", "RRBBGGGGS/SSS6/4K4/9/9/9/9/9/4k4 b - 1", EndingDeclare27, true},
		{"rule disabled", "RRBBGGGGS/SSS6/4K4/9/9/9/9/9/4k4 b - 1", EndingNone, false},
		{"too few points", "1RBBGGGGS/SSS6/4K4/9/9/9/9/9/4k4 b - 1", EndingDeclare27, false},
		{"king outside camp", "RRBBGGGGS/SSS6/9/4K4/9/9/9/9/4k4 b - 1", EndingDeclare27, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg.Ending = tc.ending
			pos, err := ParseSFEN(tc.sfen)
			if err != nil {
				t.Fatal(err)
			}
			s, err := NewStateBuilder(pos).WithConfig(cfg).Build()
			if err != nil {
				t.Fatal(err)
			}
			if got := s.CanDeclare(); got != tc.want {
				t.Errorf("CanDeclare() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHandCovers(t *testing.T) {
	a := Hand{Pawn: 2, Gold: 1}
	b := Hand{Pawn: 1}
	if !a.Covers(b) || b.Covers(a) {
		t.Error("Covers mismatch")
	}
	if a.String() != "G2P" {
		t.Errorf("String() = %s", a)
	}
}
