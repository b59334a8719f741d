package ptrhash

import (
	"testing"
)

// TestBucketHeapPopOrder tests named deterministic cases for max-heap ordering
// with ascending-index tie-breaking.
func TestBucketHeapPopOrder(t *testing.T) {
	type entry struct {
		idx  int
		size int
	}
	tests := []struct {
		name   string
		input  []entry
		expect []entry
	}{
		{
			name:   "distinct_sizes",
			input:  []entry{{0, 3}, {1, 7}, {2, 1}, {3, 5}},
			expect: []entry{{1, 7}, {3, 5}, {0, 3}, {2, 1}},
		},
		{
			name:   "all_same_size",
			input:  []entry{{0, 4}, {1, 4}, {2, 4}, {3, 4}, {4, 4}},
			expect: []entry{{0, 4}, {1, 4}, {2, 4}, {3, 4}, {4, 4}},
		},
		{
			name: "ties_mixed",
			input: []entry{
				{5, 10}, {2, 10}, {7, 3}, {0, 3}, {9, 10}, {4, 3},
			},
			expect: []entry{
				{2, 10}, {5, 10}, {9, 10},
				{0, 3}, {4, 3}, {7, 3},
			},
		},
		{
			name:   "ascending_input",
			input:  []entry{{0, 2}, {1, 4}, {2, 6}, {3, 8}},
			expect: []entry{{3, 8}, {2, 6}, {1, 4}, {0, 2}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newBucketHeap(len(tc.input))
			for _, e := range tc.input {
				h.push(e.idx, e.size)
			}
			for i, want := range tc.expect {
				idx, size := h.pop()
				if idx != want.idx || size != want.size {
					t.Fatalf("pop[%d] = (idx=%d, size=%d), want (idx=%d, size=%d)",
						i, idx, size, want.idx, want.size)
				}
			}
			if h.len() != 0 {
				t.Fatalf("heap not empty after draining: len=%d", h.len())
			}
		})
	}
}

func TestBucketHeapPushDuringDrain(t *testing.T) {
	h := newBucketHeap(8)
	h.push(0, 10)
	h.push(1, 5)
	h.push(2, 3)

	idx, size := h.pop()
	if idx != 0 || size != 10 {
		t.Fatalf("first pop = (idx=%d, size=%d), want (idx=0, size=10)", idx, size)
	}

	// Simulate eviction: push new elements.
	h.push(3, 7)
	h.push(4, 2)

	type entry struct{ idx, size int }
	expected := []entry{{3, 7}, {1, 5}, {2, 3}, {4, 2}}
	for i, want := range expected {
		idx, size := h.pop()
		if idx != want.idx || size != want.size {
			t.Fatalf("pop[%d] = (idx=%d, size=%d), want (idx=%d, size=%d)",
				i, idx, size, want.idx, want.size)
		}
	}

	h.push(9, 1)
	h.clear()
	if h.len() != 0 {
		t.Fatalf("len after clear = %d, want 0", h.len())
	}
}

func bucketsWithSizes(sizes []int) [][]bucketEntry {
	buckets := make([][]bucketEntry, len(sizes))
	for i, s := range sizes {
		buckets[i] = make([]bucketEntry, s)
	}
	return buckets
}

// TestCountingSortOrder tests named deterministic cases for counting sort output order.
func TestCountingSortOrder(t *testing.T) {
	tests := []struct {
		name   string
		sizes  []int
		expect []uint32
	}{
		{"distinct_sizes", []int{3, 1, 4, 1, 5}, []uint32{4, 2, 0, 1, 3}},
		{"all_same_size", []int{3, 3, 3, 3, 3}, []uint32{0, 1, 2, 3, 4}},
		{"all_empty", []int{0, 0, 0, 0}, []uint32{0, 1, 2, 3}},
		{"mixed_with_empty", []int{0, 5, 0, 3, 0}, []uint32{1, 3, 0, 2, 4}},
		{"single_bucket", []int{7}, []uint32{0}},
		{"ascending_sizes", []int{1, 2, 3, 4, 5}, []uint32{4, 3, 2, 1, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := countingSortBuckets(bucketsWithSizes(tc.sizes))
			if len(got) != len(tc.expect) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.expect))
			}
			for i := range got {
				if got[i] != tc.expect[i] {
					t.Fatalf("result[%d] = %d, want %d (full result: %v, expect: %v)",
						i, got[i], tc.expect[i], got, tc.expect)
				}
			}
		})
	}
}
