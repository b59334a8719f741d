// Package table is the runtime half of assetmap: the frozen, minimal perfect
// hash table layout that generated files declare, and its lookup.
//
// A generated file declares one package-level *Table as a composite literal
// of constants. The Go linker lays it out statically, so no initialization
// code runs and nothing is allocated at program start.
//
//	//go:generate go run github.com/tamirms/assetmap/cmd/assetgen generate ./web -o assets_gen.go
//
//	a, ok := Assets.Lookup("css/site.css")
//	if !ok {
//	    return fs.ErrNotExist
//	}
//	use(a.ContentType, a.Bytes())
//
// A Table is immutable and safe for concurrent use.
package table

import (
	"fmt"
	"iter"
	"slices"

	assetserrors "github.com/tamirms/assetmap/errors"
	"github.com/tamirms/assetmap/internal/ptrhash"
)

// Table is a minimal perfect hash table from asset key to Asset.
//
// Layout:
//   - Pilots: one byte per bucket, stored as a string so it lives in rodata
//   - Remap: overflow slot [len(Assets), NumSlots) -> hole in [0, len(Assets))
//   - Assets: rows ordered by slot
type Table struct {
	Hash     HashID
	Seed     uint64
	NumSlots uint32
	Pilots   string
	Remap    []uint32
	Assets   []Asset
}

// Lookup returns the asset stored under key.
// An absent key is reported with ok == false.
func (t *Table) Lookup(key string) (a *Asset, ok bool) {
	slot, ok := t.slot(key)
	if !ok {
		return nil, false
	}
	a = &t.Assets[slot]
	if a.Key != key {
		return nil, false
	}
	return a, true
}

// Contains reports whether key is in the table.
func (t *Table) Contains(key string) bool {
	_, ok := t.Lookup(key)
	return ok
}

// slot computes the candidate row for key. The row still has to be
// compared against key, because every string maps to some slot.
func (t *Table) slot(key string) (uint32, bool) {
	n := uint32(len(t.Assets))
	if n == 0 || len(t.Pilots) == 0 {
		return 0, false
	}
	k0, k1 := HashKey(t.Hash, key)
	bucket := ptrhash.Bucket(k1, uint32(len(t.Pilots)))
	slot := ptrhash.Slot(k0, k1, t.Pilots[bucket], t.Seed, n, t.NumSlots, t.Remap)
	if slot >= n {
		return 0, false
	}
	return slot, true
}

// Len returns the number of assets.
func (t *Table) Len() int {
	return len(t.Assets)
}

// All iterates over all assets in slot order.
func (t *Table) All() iter.Seq2[string, *Asset] {
	return func(yield func(string, *Asset) bool) {
		for i := range t.Assets {
			if !yield(t.Assets[i].Key, &t.Assets[i]) {
				return
			}
		}
	}
}

// Keys returns all keys in lexical order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.Assets))
	for i := range t.Assets {
		keys[i] = t.Assets[i].Key
	}
	slices.Sort(keys)
	return keys
}

// Verify checks that every row is reachable through Lookup under its own
// key and that every payload matches its digest.
func (t *Table) Verify() error {
	if want := len(t.Assets); len(t.Remap) != int(t.NumSlots)-want {
		return fmt.Errorf("%w: remap has %d entries, want %d",
			assetserrors.ErrCorruptedTable, len(t.Remap), int(t.NumSlots)-want)
	}
	for i := range t.Assets {
		a := &t.Assets[i]
		slot, ok := t.slot(a.Key)
		if !ok || int(slot) != i {
			return fmt.Errorf("%w: key %q stored at row %d resolves elsewhere",
				assetserrors.ErrCorruptedTable, a.Key, i)
		}
		if !a.Verify() {
			return fmt.Errorf("%w: key %q digest mismatch", assetserrors.ErrCorruptedTable, a.Key)
		}
	}
	return nil
}
