package table

import (
	"unsafe"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// HashID identifies the 128-bit key hash a table was built with.
// It is part of the generated table so lookups hash keys the same way.
type HashID uint8

const (
	// HashXXH3 hashes keys with xxHash3-128. This is the default.
	HashXXH3 HashID = 0

	// HashMurmur3 hashes keys with MurmurHash3 x64 128.
	HashMurmur3 HashID = 1
)

// String returns the hash name.
func (h HashID) String() string {
	switch h {
	case HashXXH3:
		return "xxh3"
	case HashMurmur3:
		return "murmur3"
	default:
		return "unknown"
	}
}

// ParseHash returns the HashID for a name accepted by String.
func ParseHash(name string) (HashID, bool) {
	switch name {
	case "", "xxh3":
		return HashXXH3, true
	case "murmur3":
		return HashMurmur3, true
	default:
		return 0, false
	}
}

// HashKey returns the two 64-bit halves of key's 128-bit hash.
// k1 selects the bucket, k0^k1 selects the slot.
func HashKey(h HashID, key string) (k0, k1 uint64) {
	switch h {
	case HashMurmur3:
		// murmur3 neither retains nor modifies its input.
		h1, h2 := murmur3.Sum128(unsafe.Slice(unsafe.StringData(key), len(key)))
		return h1, h2
	default:
		sum := xxh3.HashString128(key)
		return sum.Lo, sum.Hi
	}
}
