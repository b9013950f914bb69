package dfpn

import "testing"

func TestRoundDownToPowerOf2(t *testing.T) {
	tests := []struct{ in, want uint64 }{
		{1, 1}, {2, 2}, {3, 2}, {1000, 512}, {1 << 20, 1 << 20},
	}
	for _, tt := range tests {
		if got := roundDownToPowerOf2(tt.in); got != tt.want {
			t.Errorf("roundDownToPowerOf2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTTStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(1)

	if _, ok := tt.Probe(42); ok {
		t.Fatal("probe hit in an empty table")
	}

	tt.Store(TTEntry{Key: 42, PN: 3, DN: 7, Work: 10})
	e, ok := tt.Probe(42)
	if !ok || e.PN != 3 || e.DN != 7 {
		t.Fatalf("Probe = %+v, %v", e, ok)
	}
	if e.Proven() || e.Disproven() {
		t.Error("unsolved entry reported as solved")
	}

	// Update in place keeps the larger work.
	tt.Store(TTEntry{Key: 42, PN: 5, DN: 2, Work: 4})
	e, _ = tt.Probe(42)
	if e.PN != 5 || e.Work != 10 {
		t.Errorf("after update: %+v", e)
	}
}

func TestTTKeepsProofs(t *testing.T) {
	tt := NewTranspositionTable(1)

	tt.Store(TTEntry{Key: 9, PN: 0, DN: Infinity, MateLen: 3})
	tt.Store(TTEntry{Key: 9, PN: 4, DN: 4})

	e, ok := tt.Probe(9)
	if !ok || !e.Proven() || e.MateLen != 3 {
		t.Errorf("proof overwritten: %+v", e)
	}
}

func TestTTPathDependentExpires(t *testing.T) {
	tt := NewTranspositionTable(1)

	tt.Store(TTEntry{Key: 5, PN: Infinity, DN: 0, Flags: FlagPathDependent})
	tt.Store(TTEntry{Key: 6, PN: Infinity, DN: 0})

	if _, ok := tt.Probe(5); !ok {
		t.Fatal("flagged entry missing in its own search")
	}

	tt.NewSearch()
	if _, ok := tt.Probe(5); ok {
		t.Error("flagged entry survived a new search")
	}
	if e, ok := tt.Probe(6); !ok || !e.Disproven() {
		t.Error("clean disproof lost after a new search")
	}
}

func TestTTReplacement(t *testing.T) {
	tt := NewTranspositionTable(1)
	stride := tt.buckets // keys k + n*stride share a bucket

	// Fill one bucket, with a proof in the lowest work slot.
	tt.Store(TTEntry{Key: 1, PN: 0, DN: Infinity, Work: 1})
	tt.Store(TTEntry{Key: 1 + stride, PN: 2, DN: 2, Work: 5})
	tt.Store(TTEntry{Key: 1 + 2*stride, PN: 2, DN: 2, Work: 50})
	tt.Store(TTEntry{Key: 1 + 3*stride, PN: 2, DN: 2, Work: 500})

	tt.Store(TTEntry{Key: 1 + 4*stride, PN: 1, DN: 1, Work: 1})

	if _, ok := tt.Probe(1); !ok {
		t.Error("solved entry evicted before unsolved ones")
	}
	if _, ok := tt.Probe(1 + stride); ok {
		t.Error("least worked unsolved entry not evicted")
	}
	if _, ok := tt.Probe(1 + 4*stride); !ok {
		t.Error("new entry not stored")
	}
}

func TestTTClear(t *testing.T) {
	tt := NewTranspositionTable(1)
	for k := uint64(1); k <= 100; k++ {
		tt.Store(TTEntry{Key: k, PN: 1, DN: 1})
	}
	if tt.HashFull() == 0 {
		t.Fatal("HashFull = 0 after stores")
	}
	tt.Clear()
	if tt.HashFull() != 0 || tt.Stores() != 0 {
		t.Errorf("after Clear: hashfull %d, stores %d", tt.HashFull(), tt.Stores())
	}
	if _, ok := tt.Probe(50); ok {
		t.Error("probe hit after Clear")
	}
}

func TestSatArithmetic(t *testing.T) {
	if satAdd(Infinity, 1) != Infinity || satAdd(1, Infinity) != Infinity {
		t.Error("Infinity is not absorbing")
	}
	if satAdd(infiniteLimit, 5) != infiniteLimit {
		t.Error("unsolved sum reached Infinity")
	}
	if satSub(3, 5) != 0 || satSub(5, 3) != 2 {
		t.Error("satSub")
	}
}
