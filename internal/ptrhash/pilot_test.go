package ptrhash

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// TestPilotHashAlwaysOddNonZero verifies that pilotHash always returns
// an odd, non-zero value.
func TestPilotHashAlwaysOddNonZero(t *testing.T) {
	rng := newTestRNG(t)
	seeds := []uint64{0, 1, 0xdeadbeef, math.MaxUint64}
	for range 200 {
		seeds = append(seeds, rng.Uint64())
	}
	for _, seed := range seeds {
		for pilot := range numPilotValues {
			hp := pilotHash(uint8(pilot), seed)
			if hp == 0 || hp&1 != 1 {
				t.Fatalf("pilotHash(%d, 0x%X) = 0x%X, want odd non-zero", pilot, seed, hp)
			}
		}
	}
}

func TestPilotSlotFoldedRange(t *testing.T) {
	rng := newTestRNG(t)
	for i := range 10000 {
		numSlots := rng.Uint32N(1<<20) + 1
		slot := pilotSlotFolded(rng.Uint64(), pilotHash(uint8(i), testSeed1), numSlots)
		if slot >= numSlots {
			t.Fatalf("iter %d: slot %d >= numSlots %d", i, slot, numSlots)
		}
	}
}

func TestFastRange32(t *testing.T) {
	tests := []struct {
		x    uint64
		n    uint32
		want uint32
	}{
		{0, 1, 0},
		{math.MaxUint64, 1, 0},
		{0, 1000, 0},
		{math.MaxUint64, 1000, 999},
		{1 << 63, 1000, 500},
		{math.MaxUint64, math.MaxUint32, math.MaxUint32 - 1},
	}
	for _, tc := range tests {
		if got := fastRange32(tc.x, tc.n); got != tc.want {
			t.Errorf("fastRange32(%#x, %d) = %d, want %d", tc.x, tc.n, got, tc.want)
		}
	}

	rng := newTestRNG(t)
	for i := range 10000 {
		n := rng.Uint32N(1<<20) + 1
		a, b := rng.Uint64(), rng.Uint64()
		if a > b {
			a, b = b, a
		}
		ra, rb := fastRange32(a, n), fastRange32(b, n)
		if rb >= n || ra > rb {
			t.Fatalf("iter %d: fastRange32(%#x, %d) = %d, fastRange32(%#x, %d) = %d", i, a, n, ra, b, n, rb)
		}
	}
}

// TestCubicEpsBucketMonotonicity verifies that sorted inputs produce
// non-decreasing bucket indices.
func TestCubicEpsBucketMonotonicity(t *testing.T) {
	rng := newTestRNG(t)
	for i := range 500 {
		numBuckets := rng.Uint32N(math.MaxUint32-1) + 1
		xs := make([]uint64, 100)
		for j := range xs {
			xs[j] = rng.Uint64()
		}
		slices.Sort(xs)

		prev := cubicEpsBucket(xs[0], numBuckets)
		for j := 1; j < len(xs); j++ {
			cur := cubicEpsBucket(xs[j], numBuckets)
			if cur < prev {
				t.Fatalf("iter %d: cubicEpsBucket not monotone at %d", i, j)
			}
			prev = cur
		}
	}
}

// TestCubicEpsBucketEdgeCases tests deterministic edge cases.
func TestCubicEpsBucketEdgeCases(t *testing.T) {
	if got := cubicEpsBucket(42, 0); got != 0 {
		t.Errorf("cubicEpsBucket(42, 0) = %d, want 0", got)
	}
	for _, x := range []uint64{0, 1, math.MaxUint64, 0xDEADBEEF} {
		if got := cubicEpsBucket(x, 1); got != 0 {
			t.Errorf("cubicEpsBucket(0x%X, 1) = %d, want 0", x, got)
		}
	}
	for n := uint32(2); n <= 100; n++ {
		if got := cubicEpsBucket(0, n); got != 0 {
			t.Errorf("cubicEpsBucket(0, %d) = %d, want 0", n, got)
		}
		if got := cubicEpsBucket(math.MaxUint64, n); got != n-1 {
			t.Errorf("cubicEpsBucket(MaxUint64, %d) = %d, want %d", n, got, n-1)
		}
	}
}

func TestSlotOutOfRangeRemap(t *testing.T) {
	// An overflow slot with no remap entry resolves to numKeys, which no
	// table row occupies.
	for pilot := range numPilotValues {
		got := Slot(testSeed1, testSeed2, uint8(pilot), 7, 1, 2, nil)
		if got > 1 {
			t.Fatalf("Slot with empty remap = %d, want <= 1", got)
		}
	}
}

func TestComputeNumSlots(t *testing.T) {
	tests := []struct {
		keys int
		want uint32
	}{
		{1, 2},
		{2, 3},
		{100, 102},
		{1000, 1011},
	}
	for _, tc := range tests {
		if got := computeNumSlots(tc.keys); got != tc.want {
			t.Errorf("computeNumSlots(%d) = %d, want %d", tc.keys, got, tc.want)
		}
		if got := computeNumSlots(tc.keys); got < uint32(tc.keys) {
			t.Errorf("computeNumSlots(%d) = %d < keys", tc.keys, got)
		}
	}
}

func TestComputeNumBuckets(t *testing.T) {
	tests := []struct {
		keys int
		want uint32
	}{
		{0, 1},
		{1, 1},
		{3, 1},
		{4, 2},
		{320, 102},
	}
	for _, tc := range tests {
		if got := computeNumBuckets(tc.keys); got != tc.want {
			t.Errorf("computeNumBuckets(%d) = %d, want %d", tc.keys, got, tc.want)
		}
	}
}
