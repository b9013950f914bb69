package record

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hailam/tsumeshogi/internal/board"
	"github.com/hailam/tsumeshogi/internal/dfpn"
)

func testRecords(t *testing.T) []Record {
	t.Helper()
	var recs []Record
	for i, sfen := range []string{
		"4k4/9/4P4/9/9/9/9/9/4K4 b G 1",
		"7k1/9/8P/5N3/9/9/9/9/4K4 b 2G 1",
		"4k4/9/9/9/9/9/9/9/4K4 b G 1",
	} {
		pos, err := board.ParseSFEN(sfen)
		if err != nil {
			t.Fatalf("ParseSFEN: %v", err)
		}
		st, err := board.NewStateBuilder(pos).WithRemainingPiecesInHand(board.White).Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		code, err := st.Huffman()
		if err != nil {
			t.Fatalf("Huffman: %v", err)
		}
		recs = append(recs, Record{
			Code:    code,
			Best:    board.NewDropMove(board.Square(i+4), board.Gold).Move16(),
			Verdict: dfpn.Verdict(i),
			MateLen: uint16(2*i + 1),
		})
	}
	return recs
}

func TestWriteRead(t *testing.T) {
	recs := testRecords(t)

	for _, opts := range []Options{{}, {Compress: true}} {
		var buf bytes.Buffer
		if err := Write(&buf, recs, opts); err != nil {
			t.Fatalf("Write(%+v): %v", opts, err)
		}
		if !opts.Compress && buf.Len() != HeaderSize+len(recs)*RecordSize {
			t.Errorf("uncompressed size = %d", buf.Len())
		}

		got, err := Read(&buf)
		if err != nil {
			t.Fatalf("Read(%+v): %v", opts, err)
		}
		if len(got) != len(recs) {
			t.Fatalf("read %d records, want %d", len(got), len(recs))
		}
		for i := range recs {
			if got[i] != recs[i] {
				t.Errorf("record %d = %+v, want %+v", i, got[i], recs[i])
			}
		}
	}
}

func TestRecordPosition(t *testing.T) {
	rec := testRecords(t)[0]
	pos, err := rec.Position()
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos.PieceAt(board.MustParseSquare("5a")) != board.NewPiece(board.King, board.White) {
		t.Errorf("decoded position:\n%s", pos)
	}
}

func TestSaveLoad(t *testing.T) {
	recs := testRecords(t)
	path := filepath.Join(t.TempDir(), "solved.tshc")

	if err := Save(path, recs, Options{Compress: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(recs) || got[1] != recs[1] {
		t.Errorf("Load = %+v", got)
	}
}

func TestReadErrors(t *testing.T) {
	var good bytes.Buffer
	if err := Write(&good, testRecords(t), Options{}); err != nil {
		t.Fatal(err)
	}
	valid := good.Bytes()

	corrupt := func(f func(b []byte) []byte) []byte {
		b := append([]byte(nil), valid...)
		return f(b)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", corrupt(func(b []byte) []byte { b[0] = 'X'; return b })},
		{"future version", corrupt(func(b []byte) []byte { b[4] = Version + 1; return b })},
		{"huffman version", corrupt(func(b []byte) []byte { b[6] = board.HuffmanVersion + 1; return b })},
		{"truncated body", corrupt(func(b []byte) []byte { return b[:len(b)-1] })},
		{"bad verdict", corrupt(func(b []byte) []byte { b[HeaderSize+34] = 9; return b })},
		{"garbage zstd", corrupt(func(b []byte) []byte { b[7] = flagZstd; return b })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			if !errors.Is(err, board.ErrEncodingMismatch) {
				t.Errorf("Read: %v, want ErrEncodingMismatch", err)
			}
		})
	}

	if _, err := Read(bytes.NewReader(valid[:5])); err == nil {
		t.Error("Read accepted a short header")
	}
}
