package dfpn

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/tsumeshogi/internal/board"
)

// Infinity is the proof or disproof number of a solved node.
const Infinity uint32 = math.MaxUint32

// infiniteLimit is the largest unsolved value and the root threshold.
const infiniteLimit = Infinity - 1

// ctxCheckInterval is how many nodes a worker searches between context checks.
const ctxCheckInterval = 1024

// satAdd adds proof numbers, keeping Infinity absorbing and capping
// unsolved sums below it.
func satAdd(a, b uint32) uint32 {
	if a == Infinity || b == Infinity {
		return Infinity
	}
	s := uint64(a) + uint64(b)
	if s >= uint64(Infinity) {
		return infiniteLimit
	}
	return uint32(s)
}

func satSub(a, b uint32) uint32 {
	if a <= b {
		return 0
	}
	return a - b
}

// node is the search state of one position on the current path.
type node struct {
	key     uint64
	or      bool // attacker to move
	pn, dn  uint32
	mateLen uint16
	flags   Flag
	best    board.Move16
}

// child caches a successor while its parent is being expanded.
type child struct {
	move    board.Move32
	key     uint64
	pn, dn  uint32
	mateLen uint16
	flags   Flag
	fixed   bool // terminal by repetition or ply limit, never re-probed
}

func isCapture(m board.Move32, _ int) bool {
	return m.IsCapture()
}

func (c *child) solved() bool {
	return c.pn == 0 || c.dn == 0
}

// Worker runs one df-pn search over its own copy of the state.
// All workers of a solve share the transposition table and node counter.
type Worker struct {
	id int

	// Per-worker state copy
	st *board.State

	// Keys of the positions on the current path
	path map[uint64]struct{}

	// Nodes searched by this worker
	local uint64

	// Shared resources (pointers to solver's shared state)
	tt       *TranspositionTable
	nodes    *atomic.Uint64
	stopFlag *atomic.Bool
	ctx      context.Context

	maxNodes uint64
	maxDepth int

	log zerolog.Logger
}

// NewWorker creates a search worker on st. The worker takes ownership of st.
func NewWorker(id int, st *board.State, tt *TranspositionTable, nodes *atomic.Uint64, stopFlag *atomic.Bool) *Worker {
	return &Worker{
		id:       id,
		st:       st,
		path:     make(map[uint64]struct{}),
		tt:       tt,
		nodes:    nodes,
		stopFlag: stopFlag,
		ctx:      context.Background(),
		log:      zerolog.Nop(),
	}
}

func (w *Worker) stopped() bool {
	return w.stopFlag.Load()
}

// countNode updates the node counters and raises the stop flag when the
// budget runs out or the context is done.
func (w *Worker) countNode() {
	w.local++
	n := w.nodes.Add(1)
	if w.maxNodes > 0 && n >= w.maxNodes {
		w.stopFlag.Store(true)
	}
	if w.local%ctxCheckInterval == 0 && w.ctx.Err() != nil {
		w.stopFlag.Store(true)
	}
}

// positionKey returns the table key of the current position.
func (w *Worker) positionKey() uint64 {
	code, err := w.st.Huffman()
	if err != nil {
		// Material is conserved from a validated root, so this is unreachable
		// in practice. Fall back to the Zobrist key.
		return w.st.Position().Key()
	}
	return KeyOf(code)
}

// search runs df-pn from the current position with the attacker to move
// until the root is solved or the search is stopped.
func (w *Worker) search(root *node) {
	w.log.Debug().Int("worker", w.id).Msg("worker-start")
	w.mid(root, infiniteLimit, infiniteLimit, 0)
	w.log.Debug().
		Int("worker", w.id).
		Uint64("nodes", w.local).
		Uint32("pn", root.pn).
		Uint32("dn", root.dn).
		Msg("worker-done")
}

// mid searches n until its proof number reaches thpn or its disproof
// number reaches thdn, then stores the result.
func (w *Worker) mid(n *node, thpn, thdn uint32, depth int) {
	start := w.local
	w.countNode()

	if w.maxDepth > 0 && depth >= w.maxDepth {
		n.pn, n.dn, n.mateLen, n.flags = Infinity, 0, 0, FlagPathDependent
		return
	}

	children := w.expand(n.or)
	if len(children) == 0 {
		// No check to give, or mated.
		if n.or {
			n.pn, n.dn = Infinity, 0
		} else {
			n.pn, n.dn = 0, Infinity
		}
		n.mateLen, n.flags, n.best = 0, 0, 0
		w.store(n, start)
		return
	}

	w.path[n.key] = struct{}{}
	defer delete(w.path, n.key)

	for {
		w.refresh(children)
		best, second := w.aggregate(n, children)
		if n.pn >= thpn || n.dn >= thdn || w.stopped() {
			break
		}

		c := &children[best]
		var cthpn, cthdn uint32
		if n.or {
			cthpn = min(thpn, satAdd(second, 1))
			cthdn = satAdd(satSub(thdn, n.dn), c.dn)
		} else {
			cthdn = min(thdn, satAdd(second, 1))
			cthpn = satAdd(satSub(thpn, n.pn), c.pn)
		}

		sub := node{key: c.key, or: !n.or, pn: c.pn, dn: c.dn}
		w.st.MakeMove(c.move)
		w.mid(&sub, cthpn, cthdn, depth+1)
		w.st.UnmakeMove()
		c.pn, c.dn, c.mateLen, c.flags = sub.pn, sub.dn, sub.mateLen, sub.flags
	}

	w.store(n, start)
}

// expand generates the children of the current position: checks at OR
// nodes, evasions at AND nodes.
func (w *Worker) expand(or bool) []child {
	var moves []board.Move32
	if or {
		moves = w.st.GenerateCheckMoves().Slice()
	} else {
		// Captures first.
		evasions := w.st.GenerateLegalMoves().Slice()
		moves = append(lo.Filter(evasions, isCapture), lo.Reject(evasions, isCapture)...)
	}

	children := make([]child, len(moves))
	for i, m := range moves {
		c := &children[i]
		c.move = m
		c.pn, c.dn = 1, 1

		w.st.MakeMove(m)
		w.countNode()
		c.key = w.positionKey()
		switch {
		case w.st.Repetition().IsTerminal() || w.st.IsMaxPly():
			c.pn, c.dn, c.flags, c.fixed = Infinity, 0, FlagPathDependent, true
		case or:
			// One ply lookahead: the defender's reply count seeds pn.
			evasions := w.st.GenerateLegalMoves().Len()
			if evasions == 0 {
				c.pn, c.dn = 0, Infinity
				w.tt.Store(TTEntry{Key: c.key, PN: 0, DN: Infinity, Work: 1})
			} else {
				c.pn = uint32(evasions)
			}
		}
		w.st.UnmakeMove()
	}
	return children
}

// refresh reloads unsolved children from the table. Children on the
// current path count as disproved for this path only.
func (w *Worker) refresh(children []child) {
	for i := range children {
		c := &children[i]
		if c.fixed || c.solved() {
			continue
		}
		if _, onPath := w.path[c.key]; onPath {
			c.pn, c.dn, c.flags = Infinity, 0, FlagPathDependent
			continue
		}
		if e, ok := w.tt.Probe(c.key); ok {
			c.pn, c.dn, c.mateLen, c.flags = e.PN, e.DN, e.MateLen, e.Flags
		}
	}
}

// aggregate recomputes n from its children. It returns the index of the
// child to search next and the second best value on the selecting side.
func (w *Worker) aggregate(n *node, children []child) (int, uint32) {
	if n.or {
		return w.aggregateOr(n, children)
	}
	return w.aggregateAnd(n, children)
}

func (w *Worker) aggregateOr(n *node, children []child) (int, uint32) {
	best, second := -1, Infinity
	var dn uint32
	var flags Flag
	var mateLen uint16
	proved := -1

	for i := range children {
		// Rotate the scan so workers break ties differently.
		idx := (i + w.id) % len(children)
		c := &children[idx]
		dn = satAdd(dn, c.dn)
		flags |= c.flags
		if c.pn == 0 && (proved < 0 || c.mateLen < mateLen) {
			proved, mateLen = idx, c.mateLen
		}
		if best < 0 || c.pn < children[best].pn {
			if best >= 0 {
				second = children[best].pn
			}
			best = idx
		} else if c.pn < second {
			second = c.pn
		}
	}

	switch {
	case proved >= 0:
		n.pn, n.dn = 0, Infinity
		n.mateLen, n.flags, n.best = mateLen+1, 0, children[proved].move.Move16()
	case dn == 0:
		n.pn, n.dn = Infinity, 0
		n.mateLen, n.flags, n.best = 0, flags, 0
	default:
		n.pn, n.dn = children[best].pn, dn
		n.mateLen, n.flags, n.best = 0, 0, children[best].move.Move16()
	}
	return best, second
}

func (w *Worker) aggregateAnd(n *node, children []child) (int, uint32) {
	best, second := -1, Infinity
	var pn uint32
	var mateLen uint16
	longest := 0
	disproved, disprovedClean := -1, false

	for i := range children {
		idx := (i + w.id) % len(children)
		c := &children[idx]
		pn = satAdd(pn, c.pn)
		if c.mateLen >= mateLen {
			longest, mateLen = idx, c.mateLen
		}
		if c.dn == 0 && (disproved < 0 || (!disprovedClean && c.flags == 0)) {
			disproved, disprovedClean = idx, c.flags == 0
		}
		if best < 0 || c.dn < children[best].dn {
			if best >= 0 {
				second = children[best].dn
			}
			best = idx
		} else if c.dn < second {
			second = c.dn
		}
	}

	switch {
	case disproved >= 0:
		n.pn, n.dn = Infinity, 0
		n.mateLen, n.best = 0, children[disproved].move.Move16()
		n.flags = 0
		if !disprovedClean {
			n.flags = FlagPathDependent
		}
	case pn == 0:
		n.pn, n.dn = 0, Infinity
		n.mateLen, n.flags, n.best = mateLen+1, 0, children[longest].move.Move16()
	default:
		n.pn, n.dn = pn, children[best].dn
		n.mateLen, n.flags, n.best = 0, 0, children[best].move.Move16()
	}
	return best, second
}

func (w *Worker) store(n *node, start uint64) {
	work := w.local - start
	if work > math.MaxUint32 {
		work = math.MaxUint32
	}
	w.tt.Store(TTEntry{
		Key:     n.key,
		PN:      n.pn,
		DN:      n.dn,
		Work:    uint32(work),
		Best:    n.best,
		MateLen: n.mateLen,
		Flags:   n.flags,
	})
}
