package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/hailam/tsumeshogi/internal/board"
)

// Key prefix of solved results; the HuffmanCode bytes follow.
const resultPrefix = "r/"

// ErrNotFound reports a position with no stored result.
var ErrNotFound = errors.New("result not found")

// Options configures Open.
type Options struct {
	Dir      string // Database directory ("" = DefaultDatabaseDir)
	InMemory bool   // Keep everything in memory, Dir is ignored
	Logger   zerolog.Logger
}

// Result is a stored solve outcome.
type Result struct {
	SFEN     string    `json:"sfen"`
	Verdict  string    `json:"verdict"`
	PV       []string  `json:"pv,omitempty"`
	Nodes    uint64    `json:"nodes"`
	RunID    string    `json:"run_id,omitempty"`
	SolvedAt time.Time `json:"solved_at"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens or creates a result store.
func Open(opts Options) (*Storage, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = DefaultDatabaseDir(); err != nil {
				return nil, err
			}
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts.Logger = nil // Disable badger's own logging

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}

	log := opts.Logger.With().Str("component", "storage").Logger()
	log.Debug().Str("dir", bopts.Dir).Bool("in_memory", opts.InMemory).Msg("store-open")
	return &Storage{db: db, log: log}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func resultKey(code board.HuffmanCode) []byte {
	b := code.Bytes()
	return append([]byte(resultPrefix), b[:]...)
}

// SaveResult stores r for the position encoded by code, replacing any
// earlier result.
func (s *Storage) SaveResult(code board.HuffmanCode, r Result) error {
	if r.SolvedAt.IsZero() {
		r.SolvedAt = time.Now()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(resultKey(code), data)
	})
}

// LoadResult returns the stored result for code, or ErrNotFound.
func (s *Storage) LoadResult(code board.HuffmanCode) (Result, error) {
	var r Result

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resultKey(code))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})

	return r, err
}

// DeleteResult removes the stored result for code if any.
func (s *Storage) DeleteResult(code board.HuffmanCode) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(resultKey(code))
	})
}

// Count returns the number of stored results.
func (s *Storage) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(resultPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// ForEach calls fn for every stored result until fn returns an error.
func (s *Storage) ForEach(fn func(code board.HuffmanCode, r Result) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(resultPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			code, err := board.HuffmanFromBytes(item.Key()[len(resultPrefix):])
			if err != nil {
				return err
			}
			var r Result
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			if err := fn(code, r); err != nil {
				return err
			}
		}
		return nil
	})
}
