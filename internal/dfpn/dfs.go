package dfpn

import "github.com/hailam/tsumeshogi/internal/board"

// refineNodeBudget bounds the exhaustive search used to shorten PVs.
const refineNodeBudget = 1 << 21

// mateSearch is a depth-bounded exhaustive mate search. Results are memoized
// by position key as bounds on the plies to mate, so iterating the limit
// reuses earlier work.
type mateSearch struct {
	st       *board.State
	attacker board.Color

	within map[uint64]int // mate is forced in at most this many plies
	beyond map[uint64]int // no forced mate in this many plies or fewer

	nodes    uint64
	maxNodes uint64 // 0 = no limit
	aborted  bool
}

func newMateSearch(st *board.State, maxNodes uint64) *mateSearch {
	return &mateSearch{
		st:       st,
		attacker: st.SideToMove(),
		within:   make(map[uint64]int),
		beyond:   make(map[uint64]int),
		maxNodes: maxNodes,
	}
}

// forced reports whether the current position is a forced mate for the
// attacker within limit plies. After an abort the answer is false and
// nothing more is memoized.
func (ms *mateSearch) forced(limit int) bool {
	if ms.aborted {
		return false
	}
	key := ms.st.Position().Key()
	if b, ok := ms.within[key]; ok && b <= limit {
		return true
	}
	if b, ok := ms.beyond[key]; ok && b >= limit {
		return false
	}
	if ms.maxNodes > 0 && ms.nodes >= ms.maxNodes {
		ms.aborted = true
		return false
	}
	ms.nodes++

	var ok bool
	if ms.st.SideToMove() == ms.attacker {
		ok = ms.attack(limit)
	} else {
		ok = ms.defend(limit)
	}
	if ms.aborted {
		return false
	}

	if ok {
		if b, seen := ms.within[key]; !seen || limit < b {
			ms.within[key] = limit
		}
	} else if limit > ms.beyond[key] {
		ms.beyond[key] = limit
	}
	return ok
}

func (ms *mateSearch) attack(limit int) bool {
	if limit < 1 {
		return false
	}
	for _, m := range ms.st.GenerateCheckMoves().Slice() {
		ms.st.MakeMove(m)
		mated := ms.forced(limit - 1)
		ms.st.UnmakeMove()
		if mated {
			return true
		}
	}
	return false
}

func (ms *mateSearch) defend(limit int) bool {
	evasions := ms.st.GenerateLegalMoves()
	if evasions.Len() == 0 {
		return true
	}
	if limit < 2 {
		return false
	}
	for _, m := range evasions.Slice() {
		ms.st.MakeMove(m)
		mated := ms.forced(limit - 1)
		ms.st.UnmakeMove()
		if !mated {
			return false
		}
	}
	return true
}

// shortest returns a shortest mating line of at most maxLen plies, or nil.
func (ms *mateSearch) shortest(maxLen int) []board.Move32 {
	for limit := 1; limit <= maxLen; limit += 2 {
		if ms.forced(limit) {
			return ms.line(limit)
		}
		if ms.aborted {
			return nil
		}
	}
	return nil
}

// line builds a mating line of exactly limit plies from a position that is
// mate in limit and no sooner. The defender picks the reply that delays
// mate longest.
func (ms *mateSearch) line(limit int) []board.Move32 {
	st := ms.st
	if st.SideToMove() == ms.attacker {
		for _, m := range st.GenerateCheckMoves().Slice() {
			st.MakeMove(m)
			if ms.forced(limit - 1) {
				rest := ms.line(limit - 1)
				st.UnmakeMove()
				if rest == nil {
					return nil
				}
				return append([]board.Move32{m}, rest...)
			}
			st.UnmakeMove()
		}
		return nil
	}

	evasions := st.GenerateLegalMoves().Slice()
	if len(evasions) == 0 {
		return []board.Move32{}
	}
	best, bestLen := board.MoveNone, -1
	for _, d := range evasions {
		st.MakeMove(d)
		k := 1
		for k < limit && !ms.forced(k) {
			k += 2
		}
		st.UnmakeMove()
		if ms.aborted || k >= limit {
			return nil
		}
		if k > bestLen {
			best, bestLen = d, k
		}
	}

	st.MakeMove(best)
	rest := ms.line(bestLen)
	st.UnmakeMove()
	if rest == nil {
		return nil
	}
	return append([]board.Move32{best}, rest...)
}

// SearchMate returns a checking move that forces mate within limit plies,
// or board.MoveNone. It is an exhaustive search for short problems and for
// checking solver output.
func SearchMate(st *board.State, limit int) board.Move32 {
	if limit < 1 {
		return board.MoveNone
	}
	ms := newMateSearch(st, 0)
	for _, m := range st.GenerateCheckMoves().Slice() {
		st.MakeMove(m)
		mated := ms.forced(limit - 1)
		st.UnmakeMove()
		if mated {
			return m
		}
	}
	return board.MoveNone
}

// shortestMate returns a shortest mating line of at most maxLen plies, or
// nil if there is none or the search budget runs out.
func shortestMate(st *board.State, maxLen int) []board.Move32 {
	return newMateSearch(st, refineNodeBudget).shortest(maxLen)
}
