package assetmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	assetserrors "github.com/tamirms/assetmap/errors"
)

// Config locates the assets and the generated file. Relative Dir and Output
// are resolved against Root; an empty Root is the working directory.
type Config struct {
	Root   string
	Dir    string
	Output string    // generated file path; empty writes to Writer
	Writer io.Writer // used when Output is empty
}

// paths returns the absolute assets directory and output file.
func (c Config) paths() (dir, output string, err error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return "", "", fmt.Errorf("resolve root: %w", err)
	}
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(root, p)
	}
	dir = resolve(c.Dir)
	if c.Output != "" {
		output = resolve(c.Output)
	}
	return dir, output, nil
}

// label is the assets directory as written in the generated header. It
// never contains machine-specific path prefixes.
func (c Config) label() string {
	if c.Dir == "" {
		return "."
	}
	if filepath.IsAbs(c.Dir) {
		return filepath.Base(c.Dir)
	}
	return filepath.ToSlash(filepath.Clean(c.Dir))
}

// Generate walks the assets directory and writes a Go source file declaring
// a static table of every file found. The source is streamed to its
// destination. With Config.Output either the complete file is written or,
// on any error, nothing is; a Config.Writer may receive a partial file.
func Generate(ctx context.Context, cfg Config, opts ...BuildOption) (*Result, error) {
	dir, output, err := cfg.paths()
	if err != nil {
		return nil, err
	}
	if output == "" && cfg.Writer == nil {
		return nil, fmt.Errorf("%w: no output file or writer", assetserrors.ErrInvalidOption)
	}
	b, err := prepare(ctx, cfg, dir, output, opts)
	if err != nil {
		return nil, err
	}

	var res *Result
	if output != "" {
		res, err = finishFile(b, output)
	} else {
		res, err = b.Finish(cfg.Writer)
	}
	if err != nil {
		return nil, err
	}

	b.cfg.logger.Info().
		Int("assets", res.Assets).
		Int("compressed", res.Compressed).
		Int64("bytes", res.Bytes).
		Str("output", res.Output).
		Msg("asset table generated")
	return res, nil
}

// finishFile streams b's output into a temporary sibling of output and
// renames it into place once complete.
func finishFile(b *Builder, output string) (*Result, error) {
	sw, err := newSourceWriter(output)
	if err != nil {
		return nil, err
	}
	res, err := b.Finish(sw)
	if err != nil {
		return nil, errors.Join(err, sw.abort())
	}
	if err := sw.commit(); err != nil {
		return nil, errors.Join(err, sw.abort())
	}
	res.Output = output
	return res, nil
}

// Scan walks the assets directory and returns the entries Generate would
// embed, sorted by key, without reading any payload.
func Scan(ctx context.Context, cfg Config, opts ...BuildOption) ([]AssetEntry, error) {
	dir, output, err := cfg.paths()
	if err != nil {
		return nil, err
	}
	b, err := prepare(ctx, cfg, dir, output, opts)
	if err != nil {
		return nil, err
	}
	return b.Entries(), nil
}

// prepare checks the assets directory, walks it and feeds every file to a
// new builder in relative-path order.
func prepare(ctx context.Context, cfg Config, dir, output string, opts []BuildOption) (*Builder, error) {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", assetserrors.ErrDirectoryNotFound, dir)
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %w", assetserrors.ErrDirectoryNotFound, dir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", assetserrors.ErrNotDirectory, dir)
	}

	opts = append(slices.Clip(opts), withSourceLabel(cfg.label()))
	if output != "" {
		opts = append(opts, WithOutputDir(filepath.Dir(output)))
	}
	b, err := NewBuilder(ctx, opts...)
	if err != nil {
		return nil, err
	}

	w := &walker{
		root:       dir,
		symlinks:   b.cfg.symlinks,
		exclude:    b.cfg.exclude,
		skipHidden: b.cfg.skipHidden,
		skipFile:   output,
		norm:       b.norm,
		logger:     b.cfg.logger,
	}
	records, err := w.walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", assetserrors.ErrEmptyDirectory, dir)
	}

	// Sorting makes collisions deterministic: "x.txt.br" sorts after
	// "x.txt", so the compressed variant wins.
	slices.SortFunc(records, func(a, b FileRecord) int {
		return strings.Compare(filepath.ToSlash(a.RelPath), filepath.ToSlash(b.RelPath))
	})
	for _, rec := range records {
		if err := b.AddFile(rec); err != nil {
			return nil, err
		}
	}
	b.cfg.logger.Debug().Int("files", len(records)).Int("keys", b.Len()).Str("dir", dir).Msg("scanned assets")
	return b, nil
}
