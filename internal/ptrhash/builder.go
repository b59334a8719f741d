package ptrhash

import (
	"errors"
	"fmt"

	assetserrors "github.com/tamirms/assetmap/errors"
)

// Key is a pre-hashed key: k0 and k1 are the two halves of a 128-bit hash.
type Key struct {
	K0 uint64
	K1 uint64
}

// Result is a solved minimal perfect hash over a fixed key set.
//
// Layout:
//   - Pilots: one byte per bucket
//   - Remap: one uint32 per overflow slot in [NumKeys, NumSlots)
//   - Slots: final slot in [0, NumKeys) of every input key, in input order
type Result struct {
	Seed       uint64
	NumKeys    uint32
	NumBuckets uint32
	NumSlots   uint32
	Pilots     []uint8
	Remap      []uint32
	Slots      []uint32
}

// Build solves a minimal perfect hash for keys. Keys must be distinct.
// The search is deterministic for a given (keys, seed) pair; when the
// eviction limit trips or a dense bucket finds no pilot it retries with a
// seed derived from the previous one, so the returned Result.Seed may
// differ from seed.
func Build(keys []Key, seed uint64) (*Result, error) {
	if len(keys) == 0 {
		return nil, assetserrors.ErrEmptyTable
	}
	if len(keys) > MaxKeys {
		return nil, fmt.Errorf("%w: %d keys (max %d)", assetserrors.ErrTooManyAssets, len(keys), MaxKeys)
	}

	numBuckets := computeNumBuckets(len(keys))
	buckets := make([][]bucketEntry, numBuckets)
	for i, k := range keys {
		b := cubicEpsBucket(k.K1, numBuckets)
		buckets[b] = append(buckets[b], bucketEntry{suffix: k.K1, k0: k.K0, index: int32(i)})
	}

	var err error
	globalSeed := seed
	for range maxGlobalRetries {
		s := newSolver(buckets, len(keys), globalSeed)
		var pilots []uint8
		var remap []uint32
		pilots, remap, err = s.solve()
		if err == nil {
			return s.result(pilots, remap), nil
		}
		// A derived seed gives every bucket 256 fresh pilots. Duplicate
		// keys collide under any seed, so they fail immediately.
		if !errors.Is(err, errEvictionLimitExceeded) && !errors.Is(err, assetserrors.ErrIndistinguishableHashes) {
			return nil, err
		}
		globalSeed += seedStep
	}
	return nil, fmt.Errorf("%w: %w", assetserrors.ErrSolverFailed, err)
}

// result resolves the final slot of every key.
func (s *solver) result(pilots []uint8, remap []uint32) *Result {
	numKeys := uint32(s.numKeys)
	slots := make([]uint32, s.numKeys)
	for bucketIdx, bucket := range s.buckets {
		hp := s.pilotHPs[pilots[bucketIdx]]
		for _, e := range bucket {
			slot := pilotSlotFolded(foldSlotInput(e.k0, e.suffix), hp, s.numSlots)
			if slot >= numKeys {
				slot = remap[slot-numKeys]
			}
			slots[e.index] = slot
		}
	}
	return &Result{
		Seed:       s.globalSeed,
		NumKeys:    numKeys,
		NumBuckets: s.numBuckets,
		NumSlots:   s.numSlots,
		Pilots:     pilots,
		Remap:      remap,
		Slots:      slots,
	}
}

// Query returns the slot of a key in r.
func (r *Result) Query(k Key) uint32 {
	bucket := cubicEpsBucket(k.K1, r.NumBuckets)
	return Slot(k.K0, k.K1, r.Pilots[bucket], r.Seed, r.NumKeys, r.NumSlots, r.Remap)
}

// Verify checks r against the keys it was built from: every key must query
// to its recorded slot and the slots must be a permutation of [0, NumKeys).
func (r *Result) Verify(keys []Key) error {
	if len(keys) != int(r.NumKeys) || len(r.Slots) != len(keys) ||
		len(r.Pilots) != int(r.NumBuckets) || len(r.Remap) != int(r.NumSlots-r.NumKeys) {
		return fmt.Errorf("%w: shape mismatch for %d keys", assetserrors.ErrCorruptedTable, len(keys))
	}
	seen := make([]bool, len(keys))
	for i, k := range keys {
		slot := r.Slots[i]
		if slot >= r.NumKeys || seen[slot] {
			return fmt.Errorf("%w: key %d has slot %d", assetserrors.ErrCorruptedTable, i, slot)
		}
		seen[slot] = true
		if got := r.Query(k); got != slot {
			return fmt.Errorf("%w: key %d queries to slot %d, built at %d", assetserrors.ErrCorruptedTable, i, got, slot)
		}
	}
	return nil
}
