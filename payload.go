package assetmap

import (
	"context"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/errgroup"

	assetserrors "github.com/tamirms/assetmap/errors"
	"github.com/tamirms/assetmap/internal/encoding"
)

// payload is the loaded form of one asset file.
type payload struct {
	size    int
	digest  uint64
	litLen  int    // length of the quoted Go literal; 0 in EmbedDirective mode
	literal []byte // pre-encoded literal; nil unless encoded in parallel
}

// mapFile maps path read-only. release must be called once the bytes are
// no longer used. Empty files are not mapped.
func mapFile(path string) (data []byte, release func() error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", assetserrors.ErrUnreadableFile, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", assetserrors.ErrUnreadableFile, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%w: %s is not a regular file", assetserrors.ErrUnreadableFile, path)
	}
	if info.Size() == 0 {
		return nil, func() error { return nil }, nil
	}

	fadviseSequential(int(f.Fd()), 0, info.Size())
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: mmap %s: %w", assetserrors.ErrUnreadableFile, path, err)
	}
	madviseSequential(mm)
	return []byte(mm), mm.Unmap, nil
}

// loadPayload reads one asset and digests it. With literal set it also
// measures the Go string literal, and with encode set it renders it.
func loadPayload(path string, literal, encode bool) (payload, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return payload{}, err
	}
	p := payload{size: len(data), digest: xxhash.Sum64(data)}
	if literal {
		p.litLen = encoding.LiteralLen(data)
	}
	if encode {
		p.literal = encoding.AppendString(make([]byte, 0, p.litLen), data)
	}
	if err := release(); err != nil {
		return payload{}, fmt.Errorf("%w: unmap %s: %w", assetserrors.ErrUnreadableFile, path, err)
	}
	return p, nil
}

// loadPayloads loads every row's payload. With workers > 1 files are read
// concurrently; results always land at their row's index.
func loadPayloads(ctx context.Context, rows []row, literal, encode bool, workers int) ([]payload, error) {
	out := make([]payload, len(rows))
	if workers <= 1 {
		for i := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p, err := loadPayload(rows[i].source, literal, encode)
			if err != nil {
				return nil, fmt.Errorf("load %q: %w", rows[i].key, err)
			}
			out[i] = p
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := loadPayload(rows[i].source, literal, encode)
			if err != nil {
				return fmt.Errorf("load %q: %w", rows[i].key, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
