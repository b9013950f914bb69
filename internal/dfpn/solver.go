// Package dfpn implements a depth-first proof-number search for tsume
// (mating) problems.
package dfpn

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/tsumeshogi/internal/board"
)

// maxPVLength bounds PV extraction from the table.
const maxPVLength = 1024

// defaultRefinePV is the longest line made exact by default.
const defaultRefinePV = 11

// Verdict is the outcome of a solve for the attacker.
type Verdict uint8

const (
	VerdictUnknown Verdict = iota
	VerdictProvenWin
	VerdictProvenLoss
)

func (v Verdict) String() string {
	switch v {
	case VerdictProvenWin:
		return "win"
	case VerdictProvenLoss:
		return "loss"
	}
	return "unknown"
}

// ParseVerdict is the inverse of Verdict.String.
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "win":
		return VerdictProvenWin, nil
	case "loss":
		return VerdictProvenLoss, nil
	case "unknown":
		return VerdictUnknown, nil
	}
	return VerdictUnknown, fmt.Errorf("unknown verdict %q", s)
}

// Config controls a Solver.
type Config struct {
	TTSizeMB int    // Transposition table size (0 = 64)
	MaxNodes uint64 // Node budget per solve (0 = no limit)
	MaxDepth int    // Depth cut in plies (0 = no limit)
	Workers  int    // Parallel workers sharing the table (0 = 1)

	// RefinePV replaces proven lines of at most this many plies with an
	// exact shortest mate found by memoized exhaustive search
	// (0 = defaultRefinePV, negative = off).
	RefinePV int

	Logger zerolog.Logger
}

// DefaultConfig returns the default solver configuration.
func DefaultConfig() Config {
	return Config{
		TTSizeMB: 64,
		Workers:  1,
		RefinePV: defaultRefinePV,
		Logger:   zerolog.Nop(),
	}
}

// Result is the outcome of Solve.
type Result struct {
	Verdict        Verdict
	PV             []board.Move32 // Mating line for a win, attacker first
	ProofNumber    uint32
	DisproofNumber uint32
	Nodes          uint64
	Elapsed        time.Duration
}

// MateLength returns the number of plies of the mating line.
func (r Result) MateLength() int {
	return len(r.PV)
}

// Solver searches for forced mates. The table persists across solves
// until Clear.
type Solver struct {
	cfg Config
	tt  *TranspositionTable

	nodes    atomic.Uint64
	stopFlag atomic.Bool

	log zerolog.Logger
}

// NewSolver creates a solver with the given configuration.
func NewSolver(cfg Config) *Solver {
	if cfg.TTSizeMB <= 0 {
		cfg.TTSizeMB = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RefinePV == 0 {
		cfg.RefinePV = defaultRefinePV
	}
	return &Solver{
		cfg: cfg,
		tt:  NewTranspositionTable(cfg.TTSizeMB),
		log: cfg.Logger.With().Str("component", "dfpn").Logger(),
	}
}

// Solve searches st for a forced mate by the side to move. st is not
// modified. The root must have full material, see
// board.StateBuilder.WithRemainingPiecesInHand.
func (s *Solver) Solve(ctx context.Context, st *board.State) (Result, error) {
	start := time.Now()

	code, err := st.Huffman()
	if err != nil {
		return Result{}, fmt.Errorf("dfpn: root: %w", err)
	}
	root := node{key: KeyOf(code), or: true, pn: 1, dn: 1}

	s.tt.NewSearch()
	s.nodes.Store(0)
	s.stopFlag.Store(false)

	if e := s.log.Debug(); e.Enabled() {
		e.Str("sfen", st.Position().ToSFEN()).
			Int("workers", s.cfg.Workers).
			Uint64("max_nodes", s.cfg.MaxNodes).
			Msg("solve-start")
	}

	if s.cfg.Workers == 1 {
		w := s.newWorker(ctx, 0, st.Clone())
		w.search(&root)
	} else {
		roots := make([]node, s.cfg.Workers)
		g, gctx := errgroup.WithContext(ctx)
		for i := range roots {
			roots[i] = root
			w := s.newWorker(gctx, i, st.Clone())
			g.Go(func() error {
				w.search(&roots[i])
				// The first worker to finish ends the solve.
				s.stopFlag.Store(true)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Result{}, err
		}
		root = pickRoot(roots)
	}

	res := Result{
		ProofNumber:    root.pn,
		DisproofNumber: root.dn,
		Nodes:          s.nodes.Load(),
	}
	switch {
	case root.pn == 0:
		res.Verdict = VerdictProvenWin
		res.PV = s.principalVariation(st, int(root.mateLen))
	case root.dn == 0 && root.flags&FlagPathDependent == 0:
		res.Verdict = VerdictProvenLoss
	}
	res.Elapsed = time.Since(start)

	s.log.Info().
		Stringer("verdict", res.Verdict).
		Int("mate_len", res.MateLength()).
		Str("pv", PVString(res.PV)).
		Uint64("nodes", res.Nodes).
		Int("hashfull", s.tt.HashFull()).
		Float64("tt_hit_rate", s.tt.HitRate()).
		Dur("elapsed", res.Elapsed).
		Msg("solve-done")

	return res, nil
}

// pickRoot prefers a proof, then a clean disproof, then any disproof.
func pickRoot(roots []node) node {
	for _, r := range roots {
		if r.pn == 0 {
			return r
		}
	}
	for _, r := range roots {
		if r.dn == 0 && r.flags == 0 {
			return r
		}
	}
	for _, r := range roots {
		if r.dn == 0 {
			return r
		}
	}
	return roots[0]
}

func (s *Solver) newWorker(ctx context.Context, id int, st *board.State) *Worker {
	w := NewWorker(id, st, s.tt, &s.nodes, &s.stopFlag)
	w.ctx = ctx
	w.maxNodes = s.cfg.MaxNodes
	w.maxDepth = s.cfg.MaxDepth
	w.log = s.log
	return w
}

// principalVariation follows proven entries from the root, then looks for
// an exact shortest mate of at most RefinePV plies and uses it when found.
// Mates longer than RefinePV keep the table line.
func (s *Solver) principalVariation(st *board.State, mateLen int) []board.Move32 {
	pv := s.tablePV(st.Clone())
	if s.cfg.RefinePV <= 0 {
		return pv
	}

	limit := min(max(len(pv), mateLen), s.cfg.RefinePV)
	if exact := shortestMate(st.Clone(), limit); exact != nil {
		return exact
	}
	return pv
}

// tablePV walks best moves of proven entries until the mated position.
func (s *Solver) tablePV(st *board.State) []board.Move32 {
	var pv []board.Move32
	seen := make(map[uint64]bool)
	for len(pv) < maxPVLength {
		code, err := st.Huffman()
		if err != nil {
			break
		}
		key := KeyOf(code)
		if seen[key] {
			break
		}
		seen[key] = true

		e, ok := s.tt.Probe(key)
		if !ok || !e.Proven() || e.Best == 0 {
			break
		}
		m := st.Move32FromMove16(e.Best)
		if !st.IsLegal(m) {
			break
		}
		st.MakeMove(m)
		pv = append(pv, m)
	}
	return pv
}

// Stop signals all workers to stop.
func (s *Solver) Stop() {
	s.stopFlag.Store(true)
}

// Clear empties the transposition table.
func (s *Solver) Clear() {
	s.tt.Clear()
}

// Nodes returns the node count of the last solve.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// HashFull returns the table usage in permille.
func (s *Solver) HashFull() int {
	return s.tt.HashFull()
}

// TT returns the solver's transposition table.
func (s *Solver) TT() *TranspositionTable {
	return s.tt
}

// PVString formats a line as space separated USI moves.
func PVString(pv []board.Move32) string {
	return strings.Join(lo.Map(pv, func(m board.Move32, _ int) string {
		return m.String()
	}), " ")
}
