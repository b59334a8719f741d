// Package ptrhash implements the PTRHash minimal perfect hash construction
// used for generated asset tables.
//
// Every key lands in a bucket; every bucket gets an 8-bit pilot (0-255) that,
// combined with the key hash, selects a slot. Slots beyond the key count are
// remapped into the holes left in [0, numKeys). Collisions during the search
// are resolved by cuckoo-style eviction.
package ptrhash

import "math"

// Algorithm constants
const (
	// lambda is the average keys per bucket.
	lambda = 3.16

	// alpha is the slot overflow factor.
	alpha = 0.99

	// numPilotValues is the total number of pilot values to try (0-255 = 256 values).
	numPilotValues = 256

	// maxGlobalRetries is the maximum attempts with derived seeds.
	maxGlobalRetries = 10

	// seedStep advances the global seed between retries (golden ratio, odd).
	seedStep = 0x9e3779b97f4a7c15

	// MaxKeys bounds the number of keys in one table. Asset tables are
	// compiled into binaries, so this is far above any realistic tree.
	MaxKeys = 1 << 24
)

// computeNumSlots returns the number of slots for a given key count.
// numSlots = ceil(numKeys / alpha), but always at least numKeys.
func computeNumSlots(numKeys int) uint32 {
	n := uint32(math.Ceil(float64(numKeys) / alpha))
	if n < uint32(numKeys) {
		n = uint32(numKeys)
	}
	return n
}

// computeNumBuckets returns the number of buckets for a given key count.
// At least one bucket exists so the single-key table is well formed.
func computeNumBuckets(numKeys int) uint32 {
	nb := uint32(math.Ceil(float64(numKeys) / lambda))
	if nb == 0 {
		nb = 1
	}
	return nb
}
