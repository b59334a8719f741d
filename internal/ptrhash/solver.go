package ptrhash

import (
	"fmt"
	"math"
	"math/rand/v2"

	assetserrors "github.com/tamirms/assetmap/errors"
)

// errEvictionLimitExceeded is returned when the solver exceeds the maximum
// allowed evictions. The caller retries with a derived seed. This is an
// internal retry signal and is never user-facing.
var errEvictionLimitExceeded = fmt.Errorf("ptrhash solver: eviction limit exceeded")

const (
	// pinnedSize is the size of the circular buffer for cycle prevention.
	// Prevents re-evicting buckets that were just placed.
	pinnedSize = 16

	// maxEvictionMultiplier limits total evictions to prevent infinite loops.
	maxEvictionMultiplier = 10

	// bitsPerWord is the number of bits per uint64 word in bitvector operations.
	bitsPerWord = 64

	// pcgStream separates the two PCG state words derived from the seed.
	pcgStream = 0xda942042e4dd58b5
)

// bucketEntry holds one key during solving.
type bucketEntry struct {
	suffix uint64 // k1, drives bucket assignment
	k0     uint64
	index  int32 // position of the key in the caller's input
}

// solver holds state for one table build.
//
// The search is two-phase: first look for a pilot whose slots are all free;
// failing that, pick the pilot with the lowest eviction cost (sum of squared
// sizes of the buckets it displaces), evict those buckets onto a max-heap and
// keep going. Recently placed buckets are pinned so they are not evicted
// straight back.
type solver struct {
	numBuckets uint32
	numSlots   uint32
	numKeys    int
	globalSeed uint64

	pilotHPs [numPilotValues]uint64

	buckets     [][]bucketEntry
	bucketOrder []uint32

	pilots    []uint8
	slotOwner []int32 // slot -> bucket index, -1 when free
	processed []bool

	// Phase 2 duplicate detection
	phase2SlotGen []uint32
	phase2Gen     uint32

	pinned     [pinnedSize]int32 // -1 = empty
	pinnedBits []uint64
	pinnedIdx  int
	evictions  int

	slots         []uint32
	folded        []uint64
	bestSlots     []uint32
	evictedOwners []int32
	pendingHeap   *bucketHeap
}

// newSolver creates a solver for the given buckets.
func newSolver(buckets [][]bucketEntry, numKeys int, globalSeed uint64) *solver {
	numBuckets := uint32(len(buckets))
	numSlots := computeNumSlots(numKeys)

	maxBucketSize := 0
	for _, b := range buckets {
		if len(b) > maxBucketSize {
			maxBucketSize = len(b)
		}
	}

	s := &solver{
		numBuckets:    numBuckets,
		numSlots:      numSlots,
		numKeys:       numKeys,
		globalSeed:    globalSeed,
		buckets:       buckets,
		bucketOrder:   countingSortBuckets(buckets),
		pilots:        make([]uint8, numBuckets),
		slotOwner:     make([]int32, numSlots),
		processed:     make([]bool, numBuckets),
		phase2SlotGen: make([]uint32, numSlots),
		pinnedBits:    make([]uint64, (numBuckets+bitsPerWord-1)/bitsPerWord),
		slots:         make([]uint32, maxBucketSize),
		folded:        make([]uint64, maxBucketSize),
		bestSlots:     make([]uint32, 0, maxBucketSize),
		pendingHeap:   newBucketHeap(16),
	}
	for p := range s.pilotHPs {
		s.pilotHPs[p] = pilotHash(uint8(p), globalSeed)
	}
	for i := range s.slotOwner {
		s.slotOwner[i] = -1
	}
	for i := range s.pinned {
		s.pinned[i] = -1
	}
	return s
}

// isPinned returns true if bucket is in the recent placement buffer.
func (s *solver) isPinned(bucketIdx int) bool {
	return s.pinnedBits[bucketIdx/bitsPerWord]&(1<<(bucketIdx%bitsPerWord)) != 0
}

// pin adds bucket to the recent placement buffer.
func (s *solver) pin(bucketIdx int) {
	old := s.pinned[s.pinnedIdx]
	if old >= 0 {
		s.pinnedBits[int(old)/bitsPerWord] &^= 1 << (int(old) % bitsPerWord)
	}
	s.pinned[s.pinnedIdx] = int32(bucketIdx)
	s.pinnedBits[bucketIdx/bitsPerWord] |= 1 << (bucketIdx % bitsPerWord)
	s.pinnedIdx = (s.pinnedIdx + 1) % pinnedSize
}

// solve assigns pilots to all buckets and builds the remap table.
// Returns errEvictionLimitExceeded if the eviction limit is hit.
func (s *solver) solve() ([]uint8, []uint32, error) {
	// Seeded from the global seed so identical input always yields an
	// identical table.
	rng := rand.New(rand.NewPCG(s.globalSeed, s.globalSeed^pcgStream))
	maxEvictions := maxEvictionMultiplier * int(s.numSlots)

	for _, idx := range s.bucketOrder {
		bucketIdx := int(idx)
		if len(s.buckets[bucketIdx]) == 0 {
			s.processed[bucketIdx] = true
			continue
		}
		if s.processed[bucketIdx] {
			continue
		}
		if err := s.processBucket(bucketIdx, rng); err != nil {
			return nil, nil, err
		}

		// Drain buckets evicted while placing this one.
		for s.pendingHeap.len() > 0 {
			current, _ := s.pendingHeap.pop()
			if s.processed[current] {
				continue
			}
			if err := s.processBucket(current, rng); err != nil {
				return nil, nil, err
			}
			if s.evictions > maxEvictions {
				return nil, nil, errEvictionLimitExceeded
			}
		}
	}

	return s.pilots, s.buildRemap(), nil
}

// processBucket places one bucket, evicting others if no free pilot exists.
func (s *solver) processBucket(bucketIdx int, rng *rand.Rand) error {
	bucket := s.buckets[bucketIdx]
	size := len(bucket)
	slots := s.slots[:size]
	folded := s.folded[:size]
	for i, e := range bucket {
		folded[i] = foldSlotInput(e.k0, e.suffix)
	}

	// Phase 1: collision-free pilot
	for p := range numPilotValues {
		pilot := uint8(p)
		free := true
		for i := range folded {
			slots[i] = pilotSlotFolded(folded[i], s.pilotHPs[pilot], s.numSlots)
			if s.slotOwner[slots[i]] >= 0 {
				free = false
				break
			}
		}
		if free && s.hasNoDuplicateSlots(slots) {
			s.placeBucket(bucketIdx, pilot, slots)
			return nil
		}
	}

	// Phase 2: pilot with minimal eviction cost, random start to avoid
	// deterministic cycles.
	p0 := rng.IntN(numPilotValues)
	bestPilot := uint8(0)
	bestScore := math.MaxInt
	s.bestSlots = s.bestSlots[:0]
	minPossibleScore := size * size

	for delta := range numPilotValues {
		pilot := uint8((p0 + delta) % numPilotValues)
		for i := range folded {
			slots[i] = pilotSlotFolded(folded[i], s.pilotHPs[pilot], s.numSlots)
		}

		score := 0
		viable := true
		for _, slot := range slots {
			owner := s.slotOwner[slot]
			if owner < 0 {
				continue
			}
			if s.isPinned(int(owner)) {
				viable = false
				break
			}
			ownerSize := len(s.buckets[owner])
			score += ownerSize * ownerSize
			if score >= bestScore {
				viable = false
				break
			}
		}
		if !viable || !s.hasNoDuplicateSlots(slots) {
			continue
		}

		if score < bestScore {
			bestPilot = pilot
			bestScore = score
			s.bestSlots = append(s.bestSlots[:0], slots...)
			if score <= minPossibleScore {
				break
			}
		}
	}

	if len(s.bestSlots) == 0 {
		if hasDuplicateKey(bucket) {
			return assetserrors.ErrDuplicateKey
		}
		return fmt.Errorf("%w: bucket=%d size=%d numSlots=%d",
			assetserrors.ErrIndistinguishableHashes, bucketIdx, size, s.numSlots)
	}

	s.evictedOwners = s.evictedOwners[:0]
	for _, slot := range s.bestSlots {
		owner := s.slotOwner[slot]
		if owner < 0 || int(owner) == bucketIdx {
			continue
		}
		seen := false
		for _, e := range s.evictedOwners {
			if e == owner {
				seen = true
				break
			}
		}
		if !seen {
			s.evictedOwners = append(s.evictedOwners, owner)
		}
	}
	for _, owner := range s.evictedOwners {
		s.evictBucket(int(owner))
		s.processed[owner] = false
		s.pendingHeap.push(int(owner), len(s.buckets[owner]))
		s.evictions++
	}

	s.placeBucket(bucketIdx, bestPilot, s.bestSlots)
	s.pin(bucketIdx)
	return nil
}

// hasNoDuplicateSlots reports whether all slots of a candidate placement are
// distinct. Uses a generation counter so no clearing is needed.
func (s *solver) hasNoDuplicateSlots(slots []uint32) bool {
	if len(slots) < 2 {
		return true
	}
	s.phase2Gen++
	if s.phase2Gen == 0 {
		clear(s.phase2SlotGen)
		s.phase2Gen = 1
	}
	gen := s.phase2Gen
	for _, slot := range slots {
		if s.phase2SlotGen[slot] == gen {
			return false
		}
		s.phase2SlotGen[slot] = gen
	}
	return true
}

// hasDuplicateKey reports whether two entries in a bucket share both hash
// halves. Such keys produce identical slots for every pilot.
func hasDuplicateKey(bucket []bucketEntry) bool {
	for i := range bucket {
		for j := i + 1; j < len(bucket); j++ {
			if bucket[i].k0 == bucket[j].k0 && bucket[i].suffix == bucket[j].suffix {
				return true
			}
		}
	}
	return false
}

// placeBucket assigns a pilot to a bucket and marks its slots as taken.
func (s *solver) placeBucket(bucketIdx int, pilot uint8, slots []uint32) {
	s.pilots[bucketIdx] = pilot
	for _, slot := range slots {
		s.slotOwner[slot] = int32(bucketIdx)
	}
	s.processed[bucketIdx] = true
}

// evictBucket removes a bucket's slots from the taken set.
func (s *solver) evictBucket(bucketIdx int) {
	hp := s.pilotHPs[s.pilots[bucketIdx]]
	for _, e := range s.buckets[bucketIdx] {
		slot := pilotSlotFolded(foldSlotInput(e.k0, e.suffix), hp, s.numSlots)
		// A slot may already belong to the bucket being placed.
		if s.slotOwner[slot] == int32(bucketIdx) {
			s.slotOwner[slot] = -1
		}
	}
}

// buildRemap maps every occupied overflow slot in [numKeys, numSlots) to a
// hole in [0, numKeys). Unoccupied overflow slots map to 0 and are never read
// for keys in the table.
func (s *solver) buildRemap() []uint32 {
	numKeys := uint32(s.numKeys)
	remap := make([]uint32, s.numSlots-numKeys)

	hole := uint32(0)
	for overflow := numKeys; overflow < s.numSlots; overflow++ {
		if s.slotOwner[overflow] < 0 {
			continue
		}
		for s.slotOwner[hole] >= 0 {
			hole++
			if hole >= numKeys {
				panic("ptrhash buildRemap: out of holes in valid range")
			}
		}
		remap[overflow-numKeys] = hole
		hole++
	}
	return remap
}
