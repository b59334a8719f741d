package table

import (
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Asset is one row of a generated table.
//
// Data holds the stored bytes: for Compressed assets these are the bytes of
// the pre-compressed file on disk, not a decompressed copy. ContentType is
// always derived from Key, never from the stored file name.
type Asset struct {
	Key         string
	Data        string
	ContentType string
	Compressed  bool
	Digest      uint64 // xxHash64 of Data
}

// Bytes returns Data as a byte slice without copying.
// The slice aliases read-only memory and must not be modified.
func (a *Asset) Bytes() []byte {
	if len(a.Data) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(a.Data), len(a.Data))
}

// Size returns the number of stored bytes.
func (a *Asset) Size() int {
	return len(a.Data)
}

// Reader returns a reader over the stored bytes.
func (a *Asset) Reader() *strings.Reader {
	return strings.NewReader(a.Data)
}

// Verify reports whether Data still matches the digest recorded at
// generation time.
func (a *Asset) Verify() bool {
	return xxhash.Sum64String(a.Data) == a.Digest
}
