package assetmap

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	assetserrors "github.com/tamirms/assetmap/errors"
	"github.com/tamirms/assetmap/table"
)

func newTestBuilder(t *testing.T, opts ...BuildOption) *Builder {
	t.Helper()
	b, err := NewBuilder(context.Background(), opts...)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestNewBuilderRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  BuildOption
	}{
		{"package keyword-like", WithPackage("my-pkg")},
		{"package blank", WithPackage("_")},
		{"var empty", WithVarName("")},
		{"embed without output dir", WithEmbedMode(EmbedDirective)},
		{"embed mode", WithEmbedMode(EmbedMode(9))},
		{"hash", WithHash(table.HashID(7))},
		{"symlinks", WithSymlinks(SymlinkPolicy(5))},
		{"workers", WithWorkers(-1)},
		{"marker without dot", WithCompressionMarkers("br")},
		{"marker with slash", WithCompressionMarkers("./br")},
		{"no markers", WithCompressionMarkers()},
		{"pattern", WithExclude("[")},
		{"content type ext", WithContentTypes(map[string]string{"js": "text/javascript"})},
		{"content type value", WithContentTypes(map[string]string{".js": ""})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBuilder(context.Background(), tc.opt)
			if !errors.Is(err, assetserrors.ErrInvalidOption) {
				t.Fatalf("error = %v, want ErrInvalidOption", err)
			}
		})
	}
}

func TestBuilderAddInvalidKey(t *testing.T) {
	b := newTestBuilder(t)
	for _, key := range []string{"", ".", "/abs", "a//b", "a/../b", "dir/"} {
		err := b.Add(AssetEntry{Key: key, Source: "/x"})
		if !errors.Is(err, assetserrors.ErrInvalidKey) {
			t.Errorf("Add(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
	if err := b.Add(AssetEntry{Key: "a.txt"}); !errors.Is(err, assetserrors.ErrInvalidKey) {
		t.Errorf("Add without source error = %v, want ErrInvalidKey", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d after rejected adds", b.Len())
	}
}

func TestBuilderAddDefaultsContentType(t *testing.T) {
	b := newTestBuilder(t)
	if err := b.Add(AssetEntry{Key: "a/b.svg", Source: "/x"}); err != nil {
		t.Fatal(err)
	}
	if got := b.Entries()[0].ContentType; got != "image/svg+xml" {
		t.Errorf("ContentType = %q", got)
	}
}

func TestBuilderDuplicateKeys(t *testing.T) {
	b := newTestBuilder(t)
	for _, src := range []string{"/first", "/second"} {
		if err := b.Add(AssetEntry{Key: "k", Source: src}); err != nil {
			t.Fatal(err)
		}
	}
	if got := b.Entries(); len(got) != 1 || got[0].Source != "/second" {
		t.Errorf("Entries() = %+v, want the later source", got)
	}

	strict := newTestBuilder(t, WithStrictKeys())
	if err := strict.Add(AssetEntry{Key: "k", Source: "/first"}); err != nil {
		t.Fatal(err)
	}
	if err := strict.Add(AssetEntry{Key: "k", Source: "/second"}); !errors.Is(err, assetserrors.ErrDuplicateKey) {
		t.Fatalf("strict duplicate error = %v, want ErrDuplicateKey", err)
	}
}

func TestBuilderLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "a"})

	b := newTestBuilder(t)
	var empty bytes.Buffer
	if _, err := newTestBuilder(t).Finish(&empty); !errors.Is(err, assetserrors.ErrEmptyTable) {
		t.Fatalf("Finish on empty builder error = %v, want ErrEmptyTable", err)
	}

	if err := b.AddFile(FileRecord{AbsPath: filepath.Join(dir, "a.txt"), RelPath: "a.txt"}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	res, err := b.Finish(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if res.Assets != 1 || res.Bytes != 1 || res.NumSlots < 1 {
		t.Errorf("Result = %+v", *res)
	}
	if _, err := b.Finish(&buf); !errors.Is(err, assetserrors.ErrBuilderClosed) {
		t.Errorf("second Finish error = %v, want ErrBuilderClosed", err)
	}
	if err := b.Add(AssetEntry{Key: "b", Source: "/b"}); !errors.Is(err, assetserrors.ErrBuilderClosed) {
		t.Errorf("Add after Finish error = %v, want ErrBuilderClosed", err)
	}
	lookupOrFail(t, parseTable(t, buf.Bytes(), "Assets"), "a.txt")
}

func TestBuilderFinishMissingFile(t *testing.T) {
	b := newTestBuilder(t)
	if err := b.Add(AssetEntry{Key: "gone.txt", Source: filepath.Join(t.TempDir(), "gone.txt")}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := b.Finish(&buf); !errors.Is(err, assetserrors.ErrUnreadableFile) {
		t.Fatalf("error = %v, want ErrUnreadableFile", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes before failing", buf.Len())
	}
}

func TestBuilderResultCounts(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.js.br": "12345", "b.js": "678", "c.css.br": "9"})

	_, res := generateSource(t, dir)
	if res.Assets != 3 || res.Compressed != 2 || res.Bytes != 9 {
		t.Errorf("Result = %+v, want 3 assets, 2 compressed, 9 bytes", *res)
	}
}

func TestBuilderSeedOption(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a": "a", "b": "b", "c": "c"})

	a, resA := generateSource(t, dir, WithGlobalSeed(1))
	b, resB := generateSource(t, dir, WithGlobalSeed(2))
	if resA.Seed == resB.Seed || bytes.Equal(a, b) {
		t.Error("different seeds produced the same table")
	}
	for _, src := range [][]byte{a, b} {
		if err := parseTable(t, src, "Assets").Verify(); err != nil {
			t.Fatal(err)
		}
	}
}
