package dfpn

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/hailam/tsumeshogi/internal/board"
)

// Flag marks properties of a stored result.
type Flag uint8

const (
	// FlagPathDependent marks a disproof that relied on a repetition or a
	// depth cut on the path that produced it. It may not hold from other paths.
	FlagPathDependent Flag = 1 << iota
)

// Number of shards for TT locking (power of 2 for fast modulo)
const ttShardCount = 256
const ttShardMask = ttShardCount - 1

// Entries per bucket; a key may live in any slot of its bucket.
const bucketSize = 4

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key     uint64       // Full 64-bit position key for verification
	PN      uint32       // Proof number
	DN      uint32       // Disproof number
	Work    uint32       // Nodes spent below this entry, replacement priority
	Best    board.Move16 // Best move: mating move at OR nodes, longest defence at AND nodes
	MateLen uint16       // Plies to mate when proven
	Age     uint8        // Generation for replacement
	Flags   Flag
}

func (e *TTEntry) used() bool {
	return e.PN != 0 || e.DN != 0
}

// Proven returns true if the entry is a proof.
func (e TTEntry) Proven() bool {
	return e.PN == 0
}

// Disproven returns true if the entry is a disproof.
func (e TTEntry) Disproven() bool {
	return e.DN == 0
}

// TranspositionTable stores proof and disproof numbers by position key.
// Uses sharded locking so workers can share it.
type TranspositionTable struct {
	entries []TTEntry
	shards  [ttShardCount]sync.RWMutex // Sharded locks
	buckets uint64
	mask    uint64
	age     atomic.Uint32

	// Statistics (atomic for thread-safety)
	hits   atomic.Uint64
	probes atomic.Uint64
	stores atomic.Uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 32 // Size of TTEntry with padding
	numBuckets := uint64(sizeMB) * 1024 * 1024 / (entrySize * bucketSize)
	if numBuckets == 0 {
		numBuckets = 1
	}

	// Round down to power of 2 for fast modulo
	numBuckets = roundDownToPowerOf2(numBuckets)

	return &TranspositionTable{
		entries: make([]TTEntry, numBuckets*bucketSize),
		buckets: numBuckets,
		mask:    numBuckets - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// KeyOf hashes a HuffmanCode into a table key.
func KeyOf(code board.HuffmanCode) uint64 {
	b := code.Bytes()
	return xxhash.Sum64(b[:])
}

// shardIndex returns the shard index for a given bucket.
func (tt *TranspositionTable) shardIndex(bucket uint64) int {
	return int(bucket & ttShardMask)
}

// Probe looks up a position in the transposition table.
// Path dependent results from earlier searches are not returned.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	tt.probes.Add(1)

	bucket := key & tt.mask
	shard := tt.shardIndex(bucket)
	currentAge := uint8(tt.age.Load())

	tt.shards[shard].RLock()
	slots := tt.entries[bucket*bucketSize : (bucket+1)*bucketSize]
	var entry TTEntry
	found := false
	for i := range slots {
		if slots[i].Key == key && slots[i].used() {
			entry, found = slots[i], true
			break
		}
	}
	tt.shards[shard].RUnlock()

	if !found || (entry.Flags&FlagPathDependent != 0 && entry.Age != currentAge) {
		return TTEntry{}, false
	}
	tt.hits.Add(1)
	return entry, true
}

// Store saves an entry. A solved entry is never overwritten by an unsolved
// one for the same key, so a late worker cannot erase another's proof.
func (tt *TranspositionTable) Store(e TTEntry) {
	tt.stores.Add(1)

	bucket := e.Key & tt.mask
	shard := tt.shardIndex(bucket)
	currentAge := uint8(tt.age.Load())
	e.Age = currentAge

	tt.shards[shard].Lock()
	defer tt.shards[shard].Unlock()

	slots := tt.entries[bucket*bucketSize : (bucket+1)*bucketSize]

	for i := range slots {
		old := &slots[i]
		if old.Key != e.Key || !old.used() {
			continue
		}
		if isSolved(old) && old.Flags == 0 && !isSolved(&e) {
			return
		}
		if old.Work > e.Work {
			e.Work = old.Work
		}
		*old = e
		return
	}

	// Replacement: empty slot, else the lowest priority slot.
	victim := 0
	victimScore := ^uint64(0)
	for i := range slots {
		if !slots[i].used() {
			victim = i
			break
		}
		if s := replaceScore(&slots[i], currentAge); s < victimScore {
			victim, victimScore = i, s
		}
	}
	slots[victim] = e
}

func isSolved(e *TTEntry) bool {
	return e.PN == 0 || e.DN == 0
}

// replaceScore orders entries for eviction: stale before current,
// unsolved before solved, then by work.
func replaceScore(e *TTEntry, age uint8) uint64 {
	s := uint64(e.Work)
	if isSolved(e) {
		s |= 1 << 32
	}
	if e.Age == age {
		s |= 1 << 33
	}
	return s
}

// NewSearch increments the age counter for a new search.
// This helps with replacement decisions.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
	tt.stores.Store(0)
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > uint64(len(tt.entries)) {
		sampleSize = len(tt.entries)
	}

	currentAge := uint8(tt.age.Load())
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].used() && tt.entries[i].Age == currentAge {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Stores returns the number of Store calls since the last Clear.
func (tt *TranspositionTable) Stores() uint64 {
	return tt.stores.Load()
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}
