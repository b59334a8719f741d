package ptrhash

import "math/bits"

// pilotHashC is the mixing constant used by PTRHash for pilot hashing.
// Origin: PTRHash paper (https://arxiv.org/abs/2104.10402).
const pilotHashC = 0x517cc1b727220a95

// pilotHash computes the pilot hash value for a given pilot and seed.
//
// The SplitMix64 finalizer keeps the 256 pilots behaving as independent
// trials. The "| 1" forces an odd multiplier so slot mixing stays bijective
// and hp is never zero.
func pilotHash(pilot uint8, globalSeed uint64) uint64 {
	x := pilotHashC * (uint64(pilot) ^ globalSeed)
	// SplitMix64 finalizer (Stafford variant, from splitmix64.c by Sebastiano Vigna)
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x | 1
}

// foldSlotInput precomputes h ^ (h >> 32) from h = k0 ^ k1.
// Hoisted out of the pilot loop so the per-pilot cost is MUL + UMULH.
func foldSlotInput(k0, k1 uint64) uint64 {
	h := k0 ^ k1
	return h ^ (h >> 32)
}

// pilotSlotFolded computes the slot from a pre-folded hash value.
// The high 64 bits of (hFolded*hp) * numSlots give a uniform mapping to
// [0, numSlots).
func pilotSlotFolded(hFolded uint64, hp uint64, numSlots uint32) uint32 {
	hi, _ := bits.Mul64(hFolded*hp, uint64(numSlots))
	return uint32(hi)
}

// fastRange32 maps x to [0, n) by taking the high word of x*n.
// Monotone in x, which keeps the CubicEps skew intact.
func fastRange32(x uint64, n uint32) uint32 {
	hi, _ := bits.Mul64(x, uint64(n))
	return uint32(hi)
}

// cubicEpsBucket computes the bucket index using the CubicEps distribution.
// Skewed bucket sizes make the solver place a few large buckets first while
// the slot pool is empty and fill gaps with many small ones.
//
// Formula: x² × (1+x)/2 × 255/256 + x/256
func cubicEpsBucket(x uint64, numBuckets uint32) uint32 {
	if numBuckets <= 1 {
		return 0
	}

	x2, _ := bits.Mul64(x, x)

	// (1+x)/2 in fixed-point: shift right by 1, set MSB to represent +0.5
	xHalf := (x >> 1) | (1 << 63)

	cubic, _ := bits.Mul64(x2, xHalf)

	scaled := (cubic/256)*255 + x/256

	return fastRange32(scaled, numBuckets)
}

// Bucket returns the bucket index of a key in a table with numBuckets buckets.
// k1 drives bucket assignment; slot selection uses k0^k1.
func Bucket(k1 uint64, numBuckets uint32) uint32 {
	return cubicEpsBucket(k1, numBuckets)
}

// Slot returns the final slot of a key given its bucket's pilot.
// remap maps overflow slots [numKeys, numSlots) to holes in [0, numKeys).
// The result is only meaningful for keys that were part of the build;
// callers must compare the stored key to detect misses.
func Slot(k0, k1 uint64, pilot uint8, globalSeed uint64, numKeys, numSlots uint32, remap []uint32) uint32 {
	slot := pilotSlotFolded(foldSlotInput(k0, k1), pilotHash(pilot, globalSeed), numSlots)
	if slot >= numKeys {
		idx := slot - numKeys
		if int(idx) >= len(remap) {
			return numKeys
		}
		return remap[idx]
	}
	return slot
}
