// Package encoding renders binary payloads and tables as Go source literals.
//
// Payloads become interpreted string literals so the compiler places them in
// read-only data. Printable ASCII is kept verbatim, which keeps text assets
// readable in the generated file; everything else is a two-digit \x escape.
package encoding

import (
	"io"
	"strconv"
)

// chunkSize is the scratch buffer size used when streaming a literal.
const chunkSize = 32 * 1024

const hexDigits = "0123456789abcdef"

// escapeLen[b] is the encoded length of byte b.
var escapeLen = func() (t [256]uint8) {
	for i := range t {
		b := byte(i)
		switch {
		case b == '"' || b == '\\' || b == '\n' || b == '\t' || b == '\r':
			t[i] = 2
		case b >= 0x20 && b < 0x7f:
			t[i] = 1
		default:
			t[i] = 4
		}
	}
	return t
}()

// appendEscaped appends the literal encoding of b to dst.
func appendEscaped(dst []byte, b byte) []byte {
	switch b {
	case '"':
		return append(dst, '\\', '"')
	case '\\':
		return append(dst, '\\', '\\')
	case '\n':
		return append(dst, '\\', 'n')
	case '\t':
		return append(dst, '\\', 't')
	case '\r':
		return append(dst, '\\', 'r')
	}
	if escapeLen[b] == 1 {
		return append(dst, b)
	}
	return append(dst, '\\', 'x', hexDigits[b>>4], hexDigits[b&0xf])
}

// LiteralLen returns the length of the quoted literal for data, including
// both quotes.
func LiteralLen(data []byte) int {
	n := 2
	for _, b := range data {
		n += int(escapeLen[b])
	}
	return n
}

// WriteString writes data to w as a double-quoted Go string literal.
// The literal is streamed in chunks, so data may be a large memory map.
func WriteString(w io.Writer, data []byte) error {
	buf := make([]byte, 0, chunkSize+8)
	buf = append(buf, '"')
	for _, b := range data {
		buf = appendEscaped(buf, b)
		if len(buf) >= chunkSize {
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	buf = append(buf, '"')
	_, err := w.Write(buf)
	return err
}

// AppendString appends data to dst as a double-quoted Go string literal.
func AppendString(dst []byte, data []byte) []byte {
	dst = append(dst, '"')
	for _, b := range data {
		dst = appendEscaped(dst, b)
	}
	return append(dst, '"')
}

// AppendUint32s appends vals as a comma-separated list, perLine values per
// line, each line prefixed with indent. Suitable for the body of a slice
// composite literal.
func AppendUint32s(dst []byte, vals []uint32, perLine int, indent string) []byte {
	if perLine <= 0 {
		perLine = 16
	}
	for i, v := range vals {
		if i%perLine == 0 {
			if i > 0 {
				dst = append(dst, '\n')
			}
			dst = append(dst, indent...)
		} else {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendUint(dst, uint64(v), 10)
		dst = append(dst, ',')
	}
	return dst
}
