// Command tsume solves tsume shogi problems given as SFEN lines.
//
// Output is one tab separated line per problem: input line number,
// verdict, mate length in plies and the mating line in USI notation.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/tsumeshogi/internal/dfpn"
	"github.com/hailam/tsumeshogi/internal/logx"
	"github.com/hailam/tsumeshogi/internal/record"
	"github.com/hailam/tsumeshogi/internal/storage"
)

var (
	inPath     = flag.String("in", "", "problem file, one SFEN per line (default stdin)")
	outPath    = flag.String("out", "", "write solved problems to this record file")
	compress   = flag.Bool("compress", true, "zstd compress the record file")
	dbDir      = flag.String("db", "", "result cache directory (default: user data dir)")
	noCache    = flag.Bool("nocache", false, "do not read or write the result cache")
	hashMB     = flag.Int("hash", 64, "transposition table size per solver in MB")
	maxNodes   = flag.Uint64("nodes", 0, "node budget per problem (0 = unlimited)")
	maxDepth   = flag.Int("depth", 0, "search depth limit in plies (0 = unlimited)")
	workers    = flag.Int("workers", 1, "search workers per problem")
	jobs       = flag.Int("jobs", runtime.NumCPU(), "problems solved in parallel")
	timeout    = flag.Duration("timeout", 0, "time limit per problem (0 = unlimited)")
	logLevel   = flag.String("log", "info", "log level")
	logJSON    = flag.Bool("logjson", false, "log as JSON")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	logger := logx.New(os.Stderr, logx.Options{Level: zerolog.InfoLevel, JSON: *logJSON})
	if level, err := logx.ParseLevel(*logLevel); err != nil {
		logger.Warn().Err(err).Msg("using info level")
	} else {
		logger = logger.Level(level)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logger.Fatal().Err(err).Msg("create cpu profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("start cpu profile")
		}
		defer pprof.StopCPUProfile()
	}

	runID := uuid.NewString()
	logger = logger.With().Str("run_id", runID).Logger()

	var in io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("open problems")
		}
		defer f.Close()
		in = f
	}
	problems, err := readProblems(in)
	if err != nil {
		logger.Fatal().Err(err).Msg("read problems")
	}

	var store *storage.Storage
	if !*noCache {
		store, err = storage.Open(storage.Options{Dir: *dbDir, Logger: logger})
		if err != nil {
			logger.Fatal().Err(err).Msg("open result cache")
		}
		defer store.Close()
	}

	cfg := dfpn.DefaultConfig()
	cfg.TTSizeMB = *hashMB
	cfg.MaxNodes = *maxNodes
	cfg.MaxDepth = *maxDepth
	cfg.Workers = *workers
	cfg.Logger = logger

	b := &batch{
		cfg:     cfg,
		jobs:    *jobs,
		timeout: *timeout,
		store:   store,
		runID:   runID,
		log:     logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	logger.Info().Int("problems", len(problems)).Int("jobs", *jobs).Msg("batch-start")
	outcomes, err := b.run(ctx, problems)
	if err != nil {
		logger.Fatal().Err(err).Msg("solve")
	}

	if err := writeOutcomes(os.Stdout, outcomes); err != nil {
		logger.Fatal().Err(err).Msg("write results")
	}

	if *outPath != "" {
		solved := lo.Filter(outcomes, func(o outcome, _ int) bool {
			return o.verdict != dfpn.VerdictUnknown
		})
		recs := make([]record.Record, 0, len(solved))
		for _, o := range solved {
			rec, err := toRecord(o)
			if err != nil {
				logger.Fatal().Err(err).Msg("convert record")
			}
			recs = append(recs, rec)
		}
		if err := record.Save(*outPath, recs, record.Options{Compress: *compress}); err != nil {
			logger.Fatal().Err(err).Msg("save records")
		}
	}

	logger.Info().
		Int("problems", len(outcomes)).
		Int("mates", lo.CountBy(outcomes, func(o outcome) bool { return o.verdict == dfpn.VerdictProvenWin })).
		Int("cached", lo.CountBy(outcomes, func(o outcome) bool { return o.cached })).
		Dur("elapsed", time.Since(start)).
		Msg("batch-done")
}
