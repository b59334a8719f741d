package assetmap

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	assetserrors "github.com/tamirms/assetmap/errors"
	"github.com/tamirms/assetmap/internal/ptrhash"
	"github.com/tamirms/assetmap/table"
)

// contextCheckInterval is how often Add checks for cancellation.
const contextCheckInterval = 1024

// embedGlobChars are the path.Match metacharacters, which a //go:embed
// pattern cannot name literally.
const embedGlobChars = `*?[]\`

// AssetEntry is one logical asset: a key and the file that supplies it.
type AssetEntry struct {
	Key         string
	Source      string // absolute path of the file on disk
	ContentType string
	Compressed  bool
}

// Result summarizes a generated table.
type Result struct {
	Assets     int    // number of assets in the table
	Compressed int    // assets stored pre-compressed
	Bytes      int64  // total payload bytes
	Seed       uint64 // seed the perfect hash was solved with
	NumBuckets uint32
	NumSlots   uint32
	Output     string // generated file path; empty when written to Config.Writer
}

// Builder collects asset entries and renders them as a Go source file.
//
// Usage:
//
//	b, err := assetmap.NewBuilder(ctx, assetmap.WithPackage("web"))
//	if err != nil { return err }
//	for _, rec := range records {
//	    if err := b.AddFile(rec); err != nil { return err }
//	}
//	res, err := b.Finish(w)
//
// Entries may be added in any order; the output depends only on the final
// set of entries. A Builder is not safe for concurrent use.
type Builder struct {
	ctx      context.Context
	cfg      *buildConfig
	norm     normalizer
	types    contentTypeResolver
	entries  map[string]AssetEntry
	added    int
	finished bool
}

// NewBuilder creates a builder. Option errors are reported here.
func NewBuilder(ctx context.Context, opts ...BuildOption) (*Builder, error) {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Builder{
		ctx:     ctx,
		cfg:     cfg,
		norm:    normalizer{markers: cfg.markers},
		types:   contentTypeResolver{overrides: cfg.contentTypes, sniff: cfg.sniffUnknown},
		entries: make(map[string]AssetEntry),
	}, nil
}

// AddFile derives the key, compression flag and content type of a file
// found by the walker and adds it.
func (b *Builder) AddFile(rec FileRecord) error {
	if b.finished {
		return assetserrors.ErrBuilderClosed
	}
	key, compressed := b.norm.normalize(rec)
	ct, err := b.types.resolveFile(key, rec.AbsPath, compressed)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", assetserrors.ErrUnreadableFile, rec.AbsPath, err)
	}
	return b.Add(AssetEntry{Key: key, Source: rec.AbsPath, ContentType: ct, Compressed: compressed})
}

// Add adds an entry. A later entry with the same key replaces the earlier
// one unless WithStrictKeys is set, in which case it is ErrDuplicateKey.
func (b *Builder) Add(e AssetEntry) error {
	if b.finished {
		return assetserrors.ErrBuilderClosed
	}
	b.added++
	if b.added%contextCheckInterval == 0 {
		if err := b.ctx.Err(); err != nil {
			return err
		}
	}
	if !fs.ValidPath(e.Key) || e.Key == "." {
		return fmt.Errorf("%w: %q", assetserrors.ErrInvalidKey, e.Key)
	}
	if e.Source == "" {
		return fmt.Errorf("%w: %q has no source file", assetserrors.ErrInvalidKey, e.Key)
	}
	if e.ContentType == "" {
		e.ContentType = b.types.resolve(e.Key)
	}
	if prev, ok := b.entries[e.Key]; ok {
		if b.cfg.strictKeys {
			return fmt.Errorf("%w: %q from %s and %s", assetserrors.ErrDuplicateKey, e.Key, prev.Source, e.Source)
		}
		b.cfg.logger.Warn().
			Str("key", e.Key).
			Str("replaced", prev.Source).
			Str("by", e.Source).
			Msg("duplicate asset key, keeping the later file")
	}
	b.entries[e.Key] = e
	return nil
}

// Len returns the number of distinct keys added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Entries returns the current entries sorted by key.
func (b *Builder) Entries() []AssetEntry {
	out := make([]AssetEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(x, y AssetEntry) int { return strings.Compare(x.Key, y.Key) })
	return out
}

// sizedWriter is a destination that wants the exact output size before the
// first write.
type sizedWriter interface {
	io.Writer
	reserve(size int64) error
}

// Finish solves the perfect hash over all keys, loads every payload and
// streams the generated source to w. Payload bytes are never held in memory
// all at once unless WithWorkers encodes them in parallel. On error w may
// have received part of the file. The builder cannot be used afterwards.
func (b *Builder) Finish(w io.Writer) (*Result, error) {
	if b.finished {
		return nil, assetserrors.ErrBuilderClosed
	}
	b.finished = true

	entries := b.Entries()
	if len(entries) == 0 {
		return nil, assetserrors.ErrEmptyTable
	}

	keys := prehashKeys(b.cfg.hash, entries)
	res, err := ptrhash.Build(keys, b.cfg.globalSeed)
	if err != nil {
		return nil, err
	}
	if err := res.Verify(keys); err != nil {
		return nil, err
	}
	b.cfg.logger.Debug().
		Int("assets", len(entries)).
		Uint32("buckets", res.NumBuckets).
		Uint32("slots", res.NumSlots).
		Uint64("seed", res.Seed).
		Msg("perfect hash solved")

	rows, err := b.layoutRows(entries, res)
	if err != nil {
		return nil, err
	}

	literal := b.cfg.embedMode == EmbedLiteral
	encode := literal && b.cfg.workers > 1
	payloads, err := loadPayloads(b.ctx, rows, literal, encode, b.cfg.workers)
	if err != nil {
		return nil, err
	}

	head, err := renderHeader(b.cfg, res, rows, payloads)
	if err != nil {
		return nil, err
	}
	if sw, ok := w.(sizedWriter); ok {
		if err := sw.reserve(int64(len(head)) + payloadsLen(b.cfg, rows, payloads)); err != nil {
			return nil, err
		}
	}
	if _, err := w.Write(head); err != nil {
		return nil, fmt.Errorf("write generated source: %w", err)
	}
	if err := writePayloads(w, b.cfg, rows, payloads); err != nil {
		return nil, fmt.Errorf("write generated source: %w", err)
	}

	out := &Result{
		Assets:     len(rows),
		Seed:       res.Seed,
		NumBuckets: res.NumBuckets,
		NumSlots:   res.NumSlots,
	}
	for i, r := range rows {
		if r.compressed {
			out.Compressed++
		}
		out.Bytes += int64(payloads[i].size)
	}
	return out, nil
}

// prehashKeys hashes every key with the table's hash.
func prehashKeys(h table.HashID, entries []AssetEntry) []ptrhash.Key {
	keys := make([]ptrhash.Key, len(entries))
	for i, e := range entries {
		keys[i].K0, keys[i].K1 = table.HashKey(h, e.Key)
	}
	return keys
}

// layoutRows orders entries by their solved slot.
func (b *Builder) layoutRows(entries []AssetEntry, res *ptrhash.Result) ([]row, error) {
	rows := make([]row, len(entries))
	for i, e := range entries {
		r := row{key: e.Key, contentType: e.ContentType, compressed: e.Compressed, source: e.Source}
		if b.cfg.embedMode == EmbedDirective {
			rel, err := filepath.Rel(b.cfg.outputDir, e.Source)
			if err != nil || !filepath.IsLocal(rel) {
				return nil, fmt.Errorf("%w: %s is not below %s", assetserrors.ErrEmbedOutsideOutput, e.Source, b.cfg.outputDir)
			}
			r.embedPath = filepath.ToSlash(rel)
			// Embed patterns are globs, and cmd/go has no portable escape.
			if strings.ContainsAny(r.embedPath, embedGlobChars) {
				return nil, fmt.Errorf("%w: %q", assetserrors.ErrEmbedPattern, r.embedPath)
			}
		}
		rows[res.Slots[i]] = r
	}
	return rows, nil
}
