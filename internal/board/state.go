package board

import "fmt"

// RepetitionStatus classifies the current position against the history.
type RepetitionStatus uint8

const (
	NoRepetition RepetitionStatus = iota
	// Repetition is a drawn repetition.
	Repetition
	// WinRepetition means the side to move wins: the opponent checked throughout.
	WinRepetition
	// LossRepetition means the side to move loses: it checked throughout.
	LossRepetition
	// SuperiorRepetition: same board, the side to move holds more in hand.
	SuperiorRepetition
	// InferiorRepetition: same board, the side to move holds less in hand.
	InferiorRepetition
)

// String returns the status name.
func (r RepetitionStatus) String() string {
	switch r {
	case NoRepetition:
		return "none"
	case Repetition:
		return "draw"
	case WinRepetition:
		return "win"
	case LossRepetition:
		return "loss"
	case SuperiorRepetition:
		return "superior"
	case InferiorRepetition:
		return "inferior"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status ends the game under the rules.
func (r RepetitionStatus) IsTerminal() bool {
	return r == Repetition || r == WinRepetition || r == LossRepetition
}

// step is one history entry: the data of a reached position plus the move
// played from it (MoveNone at the tip).
type step struct {
	hash       uint64
	hands      [2]Hand
	checkers   Bitboard
	checkCount [2]uint16 // consecutive checking moves per color ending here
	move       Move32
}

// State is a Position together with its game history and rules.
// A State is not safe for concurrent use; Clone it per goroutine.
type State struct {
	pos     Position
	initial Position
	config  StateConfig
	steps   []step
}

func newState(pos *Position, config StateConfig) *State {
	s := &State{
		pos:     *pos,
		initial: *pos,
		config:  config,
		steps:   make([]step, 1, 64),
	}
	checkers := pos.Checkers()
	s.steps[0] = step{hash: pos.Hash, hands: pos.Hands, checkers: checkers}
	if checkers.More() {
		s.steps[0].checkCount[pos.SideToMove.Other()] = 1
	}
	return s
}

// NewInitialState returns a State at the starting position with default rules.
func NewInitialState() *State {
	return newState(NewPosition(), DefaultStateConfig())
}

// Position returns the current position. It must not be modified and is only
// valid until the next move.
func (s *State) Position() *Position {
	return &s.pos
}

// InitialPosition returns a copy of the position the history starts from.
func (s *State) InitialPosition() Position {
	return s.initial
}

// Config returns the rule options.
func (s *State) Config() StateConfig {
	return s.config
}

// SideToMove returns the color to move.
func (s *State) SideToMove() Color {
	return s.pos.SideToMove
}

// Ply returns the number of moves played since the initial position.
func (s *State) Ply() int {
	return len(s.steps) - 1
}

func (s *State) tip() *step {
	return &s.steps[len(s.steps)-1]
}

// Checkers returns the pieces giving check to the side to move.
func (s *State) Checkers() Bitboard {
	return s.tip().checkers
}

// InCheck returns true if the side to move is in check.
func (s *State) InCheck() bool {
	return s.tip().checkers.More()
}

// LastMove returns the most recent move, or MoveNone at the initial position.
func (s *State) LastMove() Move32 {
	if len(s.steps) < 2 {
		return MoveNone
	}
	return s.steps[len(s.steps)-2].move
}

// HistoryMove returns the move played at ply i (0 based).
func (s *State) HistoryMove(i int) Move32 {
	if i < 0 || i >= s.Ply() {
		return MoveNone
	}
	return s.steps[i].move
}

// Moves returns the moves played since the initial position.
func (s *State) Moves() []Move32 {
	moves := make([]Move32, s.Ply())
	for i := range moves {
		moves[i] = s.steps[i].move
	}
	return moves
}

// GenerateLegalMoves generates all legal moves of the current position.
func (s *State) GenerateLegalMoves() *MoveList {
	return s.pos.GenerateLegalMoves()
}

// GenerateCheckMoves generates the legal checking moves of the current position.
func (s *State) GenerateCheckMoves() *MoveList {
	return s.pos.GenerateCheckMoves()
}

// IsLegal returns true if m is legal in the current position.
func (s *State) IsLegal(m Move32) bool {
	return s.pos.IsLegal(m)
}

// Move32FromMove16 restores the piece and capture types of m from the current
// position. The result is not checked for legality.
func (s *State) Move32FromMove16(m Move16) Move32 {
	to := m.To()
	if m == 0 || !to.IsValid() {
		return MoveNone
	}
	if m.IsDrop() {
		pt := m.DropType()
		if pt < Pawn || pt >= King {
			return MoveNone
		}
		return NewDropMove(to, pt)
	}
	from := m.From()
	return NewBoardMove(from, to, s.pos.Board[from].Type(), s.pos.Board[to].Type(), m.IsPromotion())
}

// DoMove validates m and plays it.
func (s *State) DoMove(m Move32) error {
	if !s.pos.IsLegal(m) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	s.MakeMove(m)
	return nil
}

// MakeMove plays m, which must be legal. Use DoMove for unchecked input.
func (s *State) MakeMove(m Move32) {
	mover := s.pos.SideToMove
	s.tip().move = m
	counts := s.tip().checkCount

	s.pos.applyMove(m)

	checkers := s.pos.Checkers()
	if checkers.More() {
		counts[mover]++
	} else {
		counts[mover] = 0
	}
	s.steps = append(s.steps, step{
		hash:       s.pos.Hash,
		hands:      s.pos.Hands,
		checkers:   checkers,
		checkCount: counts,
	})
}

// UndoMove takes back the last move and returns it.
func (s *State) UndoMove() (Move32, error) {
	if len(s.steps) < 2 {
		return MoveNone, ErrUnderflowUndo
	}
	return s.UnmakeMove(), nil
}

// UnmakeMove takes back the last move. The history must not be empty.
func (s *State) UnmakeMove() Move32 {
	s.steps = s.steps[:len(s.steps)-1]
	tip := s.tip()
	m := tip.move
	tip.move = MoveNone
	s.pos.undoMove(m)
	return m
}

// Repetition classifies the current position against earlier positions with
// the same side to move.
func (s *State) Repetition() RepetitionStatus {
	n := len(s.steps) - 1
	cur := &s.steps[n]
	us := s.pos.SideToMove
	them := us.Other()
	occurrences := 0

	for i := n - 4; i >= 0; i -= 2 {
		prev := &s.steps[i]
		if prev.hash != cur.hash {
			continue
		}
		if prev.hands != cur.hands {
			if cur.hands[us].Covers(prev.hands[us]) {
				return SuperiorRepetition
			}
			if prev.hands[us].Covers(cur.hands[us]) {
				return InferiorRepetition
			}
			continue
		}

		occurrences++
		if s.config.Repetition == RepetitionFourFold && occurrences < 3 {
			continue
		}

		span := n - i
		if s.config.PerpetualCheck == PerpetualCheckLoses {
			if int(cur.checkCount[them])*2 >= span {
				return WinRepetition
			}
			if int(cur.checkCount[us])*2 >= span {
				return LossRepetition
			}
		}
		return Repetition
	}
	return NoRepetition
}

// IsMaxPly reports whether the configured ply limit has been reached.
func (s *State) IsMaxPly() bool {
	return s.config.MaxPly > 0 && s.Ply() >= s.config.MaxPly
}

// CanDeclare reports whether the side to move may declare a win under the
// 27-point rule: king in the enemy camp, ten other pieces there, enough
// points counting big pieces as five, and not in check.
func (s *State) CanDeclare() bool {
	if s.config.Ending != EndingDeclare27 || s.InCheck() {
		return false
	}
	us := s.pos.SideToMove
	zone := promotionZone[us]
	ksq := s.pos.KingSquare[us]
	if !zone.IsSet(ksq) {
		return false
	}

	inZone := s.pos.Occupied[us].And(zone).Clear(ksq)
	if inZone.PopCount() < 10 {
		return false
	}

	pcs := &s.pos.Pieces[us]
	big := pcs[Bishop].Or(pcs[Rook]).Or(pcs[Horse]).Or(pcs[Dragon]).And(zone)
	hand := s.pos.Hands[us]
	points := inZone.PopCount() + 4*big.PopCount() + hand.Total() + 4*(hand.Count(Bishop)+hand.Count(Rook))

	need := 28
	if us == White {
		need = 27
	}
	return points >= need
}

// Huffman returns the HuffmanCode of the current position.
func (s *State) Huffman() (HuffmanCode, error) {
	return EncodeHuffman(&s.pos)
}

// Clone returns an independent copy sharing no mutable data.
func (s *State) Clone() *State {
	c := *s
	c.steps = make([]step, len(s.steps), cap(s.steps))
	copy(c.steps, s.steps)
	return &c
}
