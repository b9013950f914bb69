package board

import (
	"encoding/binary"
	"fmt"
)

// HuffmanCode is the 256-bit packed form of a full-material position.
//
// Layout, written least significant bit first:
//
//	Black king square (7 bits), White king square (7 bits)
//	every other square in index order: board code
//	side to move (1 bit, 1 = White)
//	Black hand then White hand, each P L N S B R G: hand code + color bit
//
// Board codes end with a color bit; promoted pieces differ from their base
// form in the bit below it. A piece in hand costs one bit less than on the
// board, which pays for the empty square it leaves, so the total is exactly
// 256 bits whenever all 40 pieces are present.
type HuffmanCode [4]uint64

const (
	// HuffmanVersion identifies the code layout above.
	HuffmanVersion = 1
	// HuffmanSize is the width of a HuffmanCode in bytes.
	HuffmanSize = 32

	huffmanBits = HuffmanSize * 8
)

type huffmanSymbol struct {
	pattern uint8
	size    uint8
}

// Board codes of Black pieces; White sets the top bit.
var blackBoardCodes = [NumPieceTypes]huffmanSymbol{
	Pawn:      {0b0000, 4},
	Lance:     {0b000010, 6},
	Knight:    {0b001010, 6},
	Silver:    {0b000110, 6},
	Bishop:    {0b00001110, 8},
	Rook:      {0b00101110, 8},
	Gold:      {0b011110, 6},
	ProPawn:   {0b0100, 4},
	ProLance:  {0b010010, 6},
	ProKnight: {0b011010, 6},
	ProSilver: {0b010110, 6},
	Horse:     {0b01001110, 8},
	Dragon:    {0b01101110, 8},
}

var emptyCode = huffmanSymbol{0b1, 1}

// Hand codes, followed by a color bit on the wire.
var handCodes = [King]huffmanSymbol{
	Pawn:   {0b00, 2},
	Lance:  {0b0001, 4},
	Knight: {0b0101, 4},
	Silver: {0b0011, 4},
	Bishop: {0b001111, 6},
	Rook:   {0b011111, 6},
	Gold:   {0b0111, 4},
}

var huffmanHandOrder = [...]PieceType{Pawn, Lance, Knight, Silver, Bishop, Rook, Gold}

var (
	boardCodes [PieceLimit]huffmanSymbol

	// Decode tables: [size][pattern]
	boardLUT      [9][256]Piece
	boardLUTValid [9][256]bool
	handLUT       [7][64]PieceType
)

func init() {
	boardCodes[NoPiece] = emptyCode
	boardLUT[emptyCode.size][emptyCode.pattern] = NoPiece
	boardLUTValid[emptyCode.size][emptyCode.pattern] = true

	for pt := Pawn; pt < NumPieceTypes; pt++ {
		code := blackBoardCodes[pt]
		if code.size == 0 {
			continue
		}
		white := huffmanSymbol{code.pattern | 1<<(code.size-1), code.size}
		for c, sym := range [2]huffmanSymbol{code, white} {
			pc := NewPiece(pt, Color(c))
			boardCodes[pc] = sym
			boardLUT[sym.size][sym.pattern] = pc
			boardLUTValid[sym.size][sym.pattern] = true
		}
	}

	for _, pt := range huffmanHandOrder {
		code := handCodes[pt]
		handLUT[code.size][code.pattern] = pt
	}
}

type bitWriter struct {
	code   HuffmanCode
	cursor int
}

func (w *bitWriter) write(sym huffmanSymbol) {
	for i := uint8(0); i < sym.size; i++ {
		if w.cursor < huffmanBits && sym.pattern>>i&1 != 0 {
			w.code[w.cursor/64] |= 1 << (w.cursor % 64)
		}
		w.cursor++
	}
}

type bitReader struct {
	code   HuffmanCode
	cursor int
}

func (r *bitReader) bit() (uint8, bool) {
	if r.cursor >= huffmanBits {
		return 0, false
	}
	b := uint8(r.code[r.cursor/64] >> (r.cursor % 64) & 1)
	r.cursor++
	return b, true
}

func (r *bitReader) bits(n int) (int, bool) {
	v := 0
	for i := 0; i < n; i++ {
		b, ok := r.bit()
		if !ok {
			return 0, false
		}
		v |= int(b) << i
	}
	return v, true
}

func (r *bitReader) boardPiece() (Piece, bool) {
	var pattern uint8
	for size := uint8(1); size <= 8; size++ {
		b, ok := r.bit()
		if !ok {
			return NoPiece, false
		}
		pattern |= b << (size - 1)
		if boardLUTValid[size][pattern] {
			return boardLUT[size][pattern], true
		}
	}
	return NoPiece, false
}

func (r *bitReader) handPiece() (PieceType, bool) {
	var pattern uint8
	for size := uint8(1); size <= 6; size++ {
		b, ok := r.bit()
		if !ok {
			return NoPieceType, false
		}
		pattern |= b << (size - 1)
		if size >= 2 {
			if pt := handLUT[size][pattern]; pt != NoPieceType && handCodes[pt].size == size {
				return pt, true
			}
		}
	}
	return NoPieceType, false
}

// EncodeHuffman packs a full-material position into a HuffmanCode.
func EncodeHuffman(p *Position) (HuffmanCode, error) {
	if !p.HasFullMaterial() {
		return HuffmanCode{}, fmt.Errorf("%w: huffman code needs all 40 pieces", ErrInvalidPosition)
	}

	var w bitWriter
	w.write(huffmanSymbol{uint8(p.KingSquare[Black]), 7})
	w.write(huffmanSymbol{uint8(p.KingSquare[White]), 7})

	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.Board[sq]
		if pc.Type() == King {
			continue
		}
		w.write(boardCodes[pc])
	}

	w.write(huffmanSymbol{uint8(p.SideToMove), 1})

	for c := Black; c <= White; c++ {
		for _, pt := range huffmanHandOrder {
			for n := p.Hands[c][pt]; n > 0; n-- {
				w.write(handCodes[pt])
				w.write(huffmanSymbol{uint8(c), 1})
			}
		}
	}

	if w.cursor != huffmanBits {
		return HuffmanCode{}, fmt.Errorf("%w: encoded %d bits", ErrInvalidPosition, w.cursor)
	}
	return w.code, nil
}

// DecodeHuffman unpacks a HuffmanCode. The bits must parse to exactly 256
// bits and yield a valid full-material position.
func DecodeHuffman(code HuffmanCode) (*Position, error) {
	r := bitReader{code: code}
	pos := NewEmptyPosition()

	bk, _ := r.bits(7)
	wk, _ := r.bits(7)
	if bk >= NumSquares || wk >= NumSquares || bk == wk {
		return nil, fmt.Errorf("%w: bad king squares %d %d", ErrEncodingMismatch, bk, wk)
	}
	pos.putPiece(NewPiece(King, Black), Square(bk))
	pos.putPiece(NewPiece(King, White), Square(wk))

	for sq := Square(0); sq < NumSquares; sq++ {
		if sq == Square(bk) || sq == Square(wk) {
			continue
		}
		pc, ok := r.boardPiece()
		if !ok {
			return nil, fmt.Errorf("%w: bad board code at %s", ErrEncodingMismatch, sq)
		}
		if pc != NoPiece {
			pos.putPiece(pc, sq)
		}
	}

	side, ok := r.bits(1)
	if !ok {
		return nil, fmt.Errorf("%w: missing side to move", ErrEncodingMismatch)
	}
	pos.SetSideToMove(Color(side))

	for r.cursor < huffmanBits {
		pt, ok := r.handPiece()
		if !ok {
			return nil, fmt.Errorf("%w: bad hand code at bit %d", ErrEncodingMismatch, r.cursor)
		}
		c, ok := r.bits(1)
		if !ok {
			return nil, fmt.Errorf("%w: truncated hand code", ErrEncodingMismatch)
		}
		if pos.Hands[c][pt] >= uint8(maxPieceCount[pt]) {
			return nil, fmt.Errorf("%w: too many %s in hand", ErrEncodingMismatch, pt)
		}
		pos.Hands[c].Add(pt)
	}

	if !pos.HasFullMaterial() {
		return nil, fmt.Errorf("%w: material is not complete", ErrEncodingMismatch)
	}
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingMismatch, err)
	}
	return pos, nil
}

// Bytes returns the code as 32 little-endian bytes.
func (h HuffmanCode) Bytes() [HuffmanSize]byte {
	var b [HuffmanSize]byte
	for i, w := range h {
		binary.LittleEndian.PutUint64(b[i*8:], w)
	}
	return b
}

// HuffmanFromBytes reads a code written by Bytes.
func HuffmanFromBytes(b []byte) (HuffmanCode, error) {
	if len(b) != HuffmanSize {
		return HuffmanCode{}, fmt.Errorf("%w: huffman code is %d bytes, want %d", ErrEncodingMismatch, len(b), HuffmanSize)
	}
	var h HuffmanCode
	for i := range h {
		h[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return h, nil
}

// String returns the code as hex, most significant word first.
func (h HuffmanCode) String() string {
	return fmt.Sprintf("%016x%016x%016x%016x", h[3], h[2], h[1], h[0])
}
