package assetmap

import (
	"path/filepath"
	"strings"
)

// defaultCompressionMarkers are the file suffixes recognized as
// pre-compressed variants of a logical asset.
var defaultCompressionMarkers = []string{".br"}

// FileRecord is one regular file found under the assets root.
type FileRecord struct {
	AbsPath       string // absolute path on disk
	RelPath       string // path relative to the root, OS separators
	Precompressed bool   // name ends in a compression marker
}

// normalizer derives logical keys from file records.
type normalizer struct {
	markers []string
}

// marker returns the compression marker name ends with, if any.
// A name whose stem would be empty, "." or ".." (".br", "..br", "...br")
// is not precompressed; it keeps its full name as the key.
func (n normalizer) marker(name string) (string, bool) {
	for _, m := range n.markers {
		if !strings.HasSuffix(name, m) {
			continue
		}
		switch name[:len(name)-len(m)] {
		case "", ".", "..":
			continue
		}
		return m, true
	}
	return "", false
}

// normalize returns the lookup key of rec and whether its bytes are
// compressed. Separators become "/" and a leading "/" is dropped; a
// compression marker is stripped from the key.
func (n normalizer) normalize(rec FileRecord) (key string, compressed bool) {
	key = filepath.ToSlash(rec.RelPath)
	key = strings.TrimPrefix(key, "/")
	if !rec.Precompressed {
		return key, false
	}
	if m, ok := n.marker(filepath.Base(rec.RelPath)); ok {
		return strings.TrimSuffix(key, m), true
	}
	return key, false
}

// NormalizeKey returns the lookup key for a root-relative path using the
// default compression markers.
func NormalizeKey(relPath string) (key string, compressed bool) {
	n := normalizer{markers: defaultCompressionMarkers}
	_, pre := n.marker(filepath.Base(relPath))
	return n.normalize(FileRecord{RelPath: relPath, Precompressed: pre})
}
