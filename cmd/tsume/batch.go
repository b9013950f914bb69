package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/tsumeshogi/internal/board"
	"github.com/hailam/tsumeshogi/internal/dfpn"
	"github.com/hailam/tsumeshogi/internal/record"
	"github.com/hailam/tsumeshogi/internal/storage"
)

// problem is one input line.
type problem struct {
	line int
	sfen string
	st   *board.State
	code board.HuffmanCode
}

// outcome is the answer to a problem.
type outcome struct {
	problem
	verdict dfpn.Verdict
	pv      []string
	nodes   uint64
	elapsed time.Duration
	cached  bool
}

// readProblems parses one SFEN per line. Blank lines and lines starting
// with '#' are skipped. The defender receives every piece not on the
// board or in the attacker's hand.
func readProblems(r io.Reader) ([]problem, error) {
	var problems []problem
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "sfen ")

		pos, err := board.ParseSFEN(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		st, err := board.NewStateBuilder(pos).
			WithRemainingPiecesInHand(pos.SideToMove.Other()).
			Build()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		code, err := st.Huffman()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		problems = append(problems, problem{line: n, sfen: line, st: st, code: code})
	}
	return problems, sc.Err()
}

// batch solves problems concurrently, one solver per job slot.
type batch struct {
	cfg     dfpn.Config
	jobs    int
	timeout time.Duration // Per problem (0 = none)
	store   *storage.Storage
	runID   string
	log     zerolog.Logger
}

func (b *batch) run(ctx context.Context, problems []problem) ([]outcome, error) {
	jobs := max(b.jobs, 1)
	solvers := make(chan *dfpn.Solver, jobs)
	for i := 0; i < jobs; i++ {
		solvers <- dfpn.NewSolver(b.cfg)
	}

	out := make([]outcome, len(problems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range problems {
		g.Go(func() error {
			s := <-solvers
			defer func() { solvers <- s }()

			o, err := b.solve(gctx, s, problems[i])
			if err != nil {
				return fmt.Errorf("line %d: %w", problems[i].line, err)
			}
			out[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *batch) solve(ctx context.Context, s *dfpn.Solver, p problem) (outcome, error) {
	if o, ok := b.lookup(p); ok {
		return o, nil
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	res, err := s.Solve(ctx, p.st)
	if err != nil {
		return outcome{}, err
	}
	o := outcome{
		problem: p,
		verdict: res.Verdict,
		pv:      lo.Map(res.PV, func(m board.Move32, _ int) string { return m.String() }),
		nodes:   res.Nodes,
		elapsed: res.Elapsed,
	}

	b.log.Info().
		Int("line", p.line).
		Stringer("verdict", o.verdict).
		Strs("pv", o.pv).
		Uint64("nodes", o.nodes).
		Dur("elapsed", o.elapsed).
		Msg("problem-done")

	if b.store != nil && o.verdict != dfpn.VerdictUnknown {
		err := b.store.SaveResult(p.code, storage.Result{
			SFEN:    p.sfen,
			Verdict: o.verdict.String(),
			PV:      o.pv,
			Nodes:   o.nodes,
			RunID:   b.runID,
		})
		if err != nil {
			return outcome{}, fmt.Errorf("save result: %w", err)
		}
	}
	return o, nil
}

// lookup returns a stored answer for p.
func (b *batch) lookup(p problem) (outcome, bool) {
	if b.store == nil {
		return outcome{}, false
	}
	r, err := b.store.LoadResult(p.code)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.log.Warn().Err(err).Int("line", p.line).Msg("cache lookup failed")
		}
		return outcome{}, false
	}
	v, err := dfpn.ParseVerdict(r.Verdict)
	if err != nil || v == dfpn.VerdictUnknown {
		return outcome{}, false
	}
	b.log.Debug().Int("line", p.line).Str("run_id", r.RunID).Msg("cache-hit")
	return outcome{problem: p, verdict: v, pv: r.PV, nodes: r.Nodes, cached: true}, true
}

// toRecord converts an outcome for a record file.
func toRecord(o outcome) (record.Record, error) {
	rec := record.Record{
		Code:    o.code,
		Verdict: o.verdict,
		MateLen: uint16(len(o.pv)),
	}
	if len(o.pv) > 0 {
		m, err := board.ParseMove(o.pv[0], o.st.Position())
		if err != nil {
			return record.Record{}, fmt.Errorf("line %d: %w", o.line, err)
		}
		rec.Best = m.Move16()
	}
	return rec, nil
}

// writeOutcomes prints one line per problem in input order.
func writeOutcomes(w io.Writer, outcomes []outcome) error {
	bw := bufio.NewWriter(w)
	for _, o := range outcomes {
		fmt.Fprintf(bw, "%d\t%s\t%d\t%s\n", o.line, o.verdict, len(o.pv), strings.Join(o.pv, " "))
	}
	return bw.Flush()
}
