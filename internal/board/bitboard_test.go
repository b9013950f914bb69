package board

import "testing"

func TestMasksBuilt(t *testing.T) {
	for f := 0; f < NumFiles; f++ {
		if n := FileMask[f].PopCount(); n != NumRanks {
			t.Errorf("FileMask[%d] has %d squares, want %d", f, n, NumRanks)
		}
	}
	for r := 0; r < NumRanks; r++ {
		if n := RankMask[r].PopCount(); n != NumFiles {
			t.Errorf("RankMask[%d] has %d squares, want %d", r, n, NumFiles)
		}
	}
	for c := Black; c <= White; c++ {
		if n := promotionZone[c].PopCount(); n != 27 {
			t.Errorf("promotionZone[%s] has %d squares, want 27", c, n)
		}
	}
	if Universe.PopCount() != NumSquares {
		t.Errorf("Universe has %d squares", Universe.PopCount())
	}
}

func TestAttackTablesBuilt(t *testing.T) {
	sq := MustParseSquare

	tests := []struct {
		name string
		got  Bitboard
		want []string
	}{
		{"black pawn 7g", StepAttacks(Pawn, Black, sq("7g")), []string{"7f"}},
		{"white pawn 3c", StepAttacks(Pawn, White, sq("3c")), []string{"3d"}},
		{"black knight 8i", StepAttacks(Knight, Black, sq("8i")), []string{"9g", "7g"}},
		{"black gold 5e", StepAttacks(Gold, Black, sq("5e")), []string{"6d", "5d", "4d", "6e", "4e", "5f"}},
		{"promoted pawn moves like gold", StepAttacks(ProPawn, Black, sq("5e")), []string{"6d", "5d", "4d", "6e", "4e", "5f"}},
		{"king corner 1a", StepAttacks(King, White, sq("1a")), []string{"2a", "1b", "2b"}},
		{"between 1a 1e", Between(sq("1a"), sq("1e")), []string{"1b", "1c", "1d"}},
		{"between 9i 5e", Between(sq("9i"), sq("5e")), []string{"8h", "7g", "6f"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var want Bitboard
			for _, s := range tt.want {
				want = want.Set(sq(s))
			}
			if tt.got != want {
				t.Errorf("got %v, want %v", tt.got.Squares(), want.Squares())
			}
		})
	}
}
