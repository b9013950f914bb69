package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility.
// The board key covers pieces and side to move only; hands are hashed
// separately so repetition detection can compare boards with unequal hands.
var (
	zobristPiece      [2][NumPieceTypes][NumSquares]uint64 // [Color][PieceType][Square]
	zobristHand       [2][King][maxHandKey + 1]uint64      // [Color][PieceType][count]
	zobristSideToMove uint64                               // XOR when White to move
)

const maxHandKey = 18

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234) // Fixed seed

	for c := Black; c <= White; c++ {
		for pt := Pawn; pt < NumPieceTypes; pt++ {
			for sq := Square(0); sq < NumSquares; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}

	// Count 0 keeps a zero key so an empty hand hashes to nothing.
	for c := Black; c <= White; c++ {
		for pt := Pawn; pt < King; pt++ {
			for n := 1; n <= maxHandKey; n++ {
				zobristHand[c][pt][n] = rng.next()
			}
		}
	}

	zobristSideToMove = rng.next()
}

// HandHash returns the Zobrist key of both hands.
func (p *Position) HandHash() uint64 {
	var h uint64
	for c := Black; c <= White; c++ {
		for pt := Pawn; pt < King; pt++ {
			if n := p.Hands[c][pt]; n <= maxHandKey {
				h ^= zobristHand[c][pt][n]
			}
		}
	}
	return h
}

// Key returns a hash of the full position: board, side to move and hands.
func (p *Position) Key() uint64 {
	return p.Hash ^ p.HandHash()
}

// computeHash recomputes the board hash from scratch.
func (p *Position) computeHash() uint64 {
	var h uint64
	for sq := Square(0); sq < NumSquares; sq++ {
		if pc := p.Board[sq]; pc != NoPiece {
			h ^= zobristPiece[pc.Color()][pc.Type()][sq]
		}
	}
	if p.SideToMove == White {
		h ^= zobristSideToMove
	}
	return h
}
