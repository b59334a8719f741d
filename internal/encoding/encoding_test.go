package encoding

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"
)

func TestWriteStringUnquotes(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	rng := rand.New(rand.NewPCG(1, 2))
	big := make([]byte, 3*chunkSize+17)
	for i := range big {
		big[i] = byte(rng.Uint32())
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("body { color: \"red\"; }\n\tpath\\to\r\n")},
		{"all_bytes", all},
		{"hex_digit_after_escape", []byte{0x00, 'a', 'f', '0', 0xff, '9'}},
		{"utf8", []byte("héllo, 世界")},
		{"multi_chunk", big},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteString(&buf, tc.data); err != nil {
				t.Fatal(err)
			}
			if buf.Len() != LiteralLen(tc.data) {
				t.Fatalf("wrote %d bytes, LiteralLen = %d", buf.Len(), LiteralLen(tc.data))
			}
			got, err := strconv.Unquote(buf.String())
			if err != nil {
				t.Fatalf("Unquote: %v", err)
			}
			if got != string(tc.data) {
				t.Fatal("unquoted literal differs from input")
			}
			if !bytes.Equal(AppendString(nil, tc.data), buf.Bytes()) {
				t.Fatal("AppendString and WriteString disagree")
			}
		})
	}
}

func TestWriteStringKeepsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteString(&buf, []byte("<h1>Hi</h1>")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `"<h1>Hi</h1>"` {
		t.Fatalf("got %s", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteStringPropagatesError(t *testing.T) {
	if err := WriteString(failingWriter{}, []byte("x")); err == nil {
		t.Fatal("expected write error")
	}
}

func TestAppendUint32s(t *testing.T) {
	tests := []struct {
		vals    []uint32
		perLine int
		want    string
	}{
		{nil, 4, ""},
		{[]uint32{1}, 4, "\t1,"},
		{[]uint32{1, 2, 3, 4, 5}, 2, "\t1, 2,\n\t3, 4,\n\t5,"},
		{[]uint32{7, 8}, 0, "\t7, 8,"},
	}
	for _, tc := range tests {
		if got := string(AppendUint32s(nil, tc.vals, tc.perLine, "\t")); got != tc.want {
			t.Errorf("AppendUint32s(%v, %d) = %q, want %q", tc.vals, tc.perLine, got, tc.want)
		}
	}
}
