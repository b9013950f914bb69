// Package record reads and writes solved problems as fixed-width binary
// records, optionally zstd compressed.
//
// File layout (little-endian):
//
//	header  12 bytes: magic "TSHC", format version (2), Huffman version (1),
//	        flags (1), record count (4)
//	body    count 40-byte records, zstd compressed when flagZstd is set
//
// Record layout:
//
//	0-31   HuffmanCode
//	32-33  best move (Move16)
//	34     verdict
//	35-36  mate length in plies
//	37-39  reserved, zero
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/hailam/tsumeshogi/internal/board"
	"github.com/hailam/tsumeshogi/internal/dfpn"
)

const (
	magic      = "TSHC"
	Version    = 1
	HeaderSize = 12
	RecordSize = 40

	flagZstd = 1 << 0
)

// Record is one solved position.
type Record struct {
	Code    board.HuffmanCode
	Best    board.Move16
	Verdict dfpn.Verdict
	MateLen uint16
}

// Position decodes the record's position.
func (r Record) Position() (*board.Position, error) {
	return board.DecodeHuffman(r.Code)
}

func (r Record) marshal(dst []byte) {
	code := r.Code.Bytes()
	copy(dst[0:32], code[:])
	binary.LittleEndian.PutUint16(dst[32:34], uint16(r.Best))
	dst[34] = byte(r.Verdict)
	binary.LittleEndian.PutUint16(dst[35:37], r.MateLen)
	dst[37], dst[38], dst[39] = 0, 0, 0
}

func unmarshal(src []byte) (Record, error) {
	code, err := board.HuffmanFromBytes(src[0:32])
	if err != nil {
		return Record{}, err
	}
	v := dfpn.Verdict(src[34])
	if v > dfpn.VerdictProvenLoss {
		return Record{}, fmt.Errorf("%w: verdict %d", board.ErrEncodingMismatch, v)
	}
	return Record{
		Code:    code,
		Best:    board.Move16(binary.LittleEndian.Uint16(src[32:34])),
		Verdict: v,
		MateLen: binary.LittleEndian.Uint16(src[35:37]),
	}, nil
}

// Options controls Write.
type Options struct {
	Compress bool
	Level    zstd.EncoderLevel // Used when Compress is set (0 = SpeedDefault)
}

// Write encodes recs to w.
func Write(w io.Writer, recs []Record, opts Options) error {
	body := make([]byte, len(recs)*RecordSize)
	for i, r := range recs {
		r.marshal(body[i*RecordSize : (i+1)*RecordSize])
	}

	var header [HeaderSize]byte
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint16(header[4:6], Version)
	header[6] = board.HuffmanVersion
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(recs)))

	if opts.Compress {
		header[7] |= flagZstd
		level := opts.Level
		if level == 0 {
			level = zstd.SpeedDefault
		}
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		body = encoder.EncodeAll(body, nil)
		encoder.Close()
	}

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// Read decodes a record stream written by Write.
func Read(r io.Reader) ([]Record, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(header[0:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", board.ErrEncodingMismatch, header[0:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:6]); v != Version {
		return nil, fmt.Errorf("%w: record version %d, want %d", board.ErrEncodingMismatch, v, Version)
	}
	if v := header[6]; v != board.HuffmanVersion {
		return nil, fmt.Errorf("%w: huffman version %d, want %d", board.ErrEncodingMismatch, v, board.HuffmanVersion)
	}
	flags := header[7]
	count := int(binary.LittleEndian.Uint32(header[8:12]))

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if flags&flagZstd != 0 {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		body, err = decoder.DecodeAll(body, nil)
		decoder.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", board.ErrEncodingMismatch, err)
		}
	}
	if len(body) != count*RecordSize {
		return nil, fmt.Errorf("%w: %d body bytes for %d records", board.ErrEncodingMismatch, len(body), count)
	}

	recs := make([]Record, count)
	for i := range recs {
		if recs[i], err = unmarshal(body[i*RecordSize : (i+1)*RecordSize]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return recs, nil
}

// Save writes recs to a file.
func Save(filename string, recs []Record, opts Options) error {
	var buf bytes.Buffer
	if err := Write(&buf, recs, opts); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0644)
}

// Load reads a record file.
func Load(filename string) ([]Record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Read(file)
}
