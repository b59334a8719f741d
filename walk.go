package assetmap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	assetserrors "github.com/tamirms/assetmap/errors"
)

// SymlinkPolicy selects how the walker treats symbolic links.
type SymlinkPolicy uint8

const (
	// SymlinkSkip ignores symbolic links. Default.
	SymlinkSkip SymlinkPolicy = iota
	// SymlinkFollow resolves links to files and directories. A directory
	// is walked under every path that reaches it, except a link back to one
	// of its own ancestors, which would loop.
	SymlinkFollow
	// SymlinkError reports every link as ErrSymlink.
	SymlinkError
)

var symlinkPolicyNames = [...]string{
	SymlinkSkip:   "skip",
	SymlinkFollow: "follow",
	SymlinkError:  "error",
}

func (p SymlinkPolicy) String() string {
	if int(p) < len(symlinkPolicyNames) {
		return symlinkPolicyNames[p]
	}
	return fmt.Sprintf("SymlinkPolicy(%d)", uint8(p))
}

// ParseSymlinkPolicy parses "skip", "follow" or "error". The empty string
// selects SymlinkSkip.
func ParseSymlinkPolicy(s string) (SymlinkPolicy, bool) {
	if s == "" {
		return SymlinkSkip, true
	}
	for i, name := range symlinkPolicyNames {
		if s == name {
			return SymlinkPolicy(i), true
		}
	}
	return 0, false
}

// walker collects regular files below a root directory.
//
// The traversal is iterative with an explicit stack, so directory depth is
// bounded by memory, not by goroutine stack size. Unreadable directories
// do not stop the walk; every failure is collected and returned together.
type walker struct {
	root       string
	symlinks   SymlinkPolicy
	exclude    []string
	skipHidden bool
	skipFile   string // absolute path never collected, the generated file itself
	norm       normalizer
	logger     zerolog.Logger

	// readDir lists a directory; nil means os.ReadDir.
	readDir func(name string) ([]os.DirEntry, error)
}

type pendingDir struct {
	abs string
	rel string
	// ancestors holds the resolved paths of this directory and every
	// directory above it. Only set under SymlinkFollow.
	ancestors []string
}

// walk returns the regular files under w.root in traversal order. A
// non-nil error joins every failure seen; the records are still returned.
func (w *walker) walk(ctx context.Context) ([]FileRecord, error) {
	var (
		records []FileRecord
		errs    []error
		stack   = []pendingDir{{abs: w.root}}
	)
	follow := w.symlinks == SymlinkFollow
	if follow {
		resolved, err := filepath.EvalSymlinks(w.root)
		if err != nil {
			resolved = w.root
		}
		stack[0].ancestors = []string{resolved}
	}
	readDir := w.readDir
	if readDir == nil {
		readDir = os.ReadDir
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// ReadDir returns whatever it listed before failing.
		entries, err := readDir(dir.abs)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", assetserrors.ErrUnreadableDirectory, dir.abs, err))
		}

		for _, e := range entries {
			name := e.Name()
			abs := filepath.Join(dir.abs, name)
			rel := filepath.Join(dir.rel, name)
			if w.excluded(rel, name) {
				w.logger.Debug().Str("path", rel).Msg("excluded")
				continue
			}

			typ := e.Type()
			if typ&fs.ModeSymlink != 0 {
				switch w.symlinks {
				case SymlinkError:
					errs = append(errs, fmt.Errorf("%w: %s", assetserrors.ErrSymlink, abs))
					continue
				case SymlinkFollow:
					info, err := os.Stat(abs)
					if err != nil {
						errs = append(errs, fmt.Errorf("%w: dangling link %s: %w", assetserrors.ErrSymlink, abs, err))
						continue
					}
					typ = info.Mode().Type()
				default:
					w.logger.Debug().Str("path", rel).Msg("skipping symlink")
					continue
				}
			}

			switch {
			case typ.IsDir():
				next := pendingDir{abs: abs, rel: rel}
				if follow {
					resolved, err := filepath.EvalSymlinks(abs)
					if err != nil {
						errs = append(errs, fmt.Errorf("%w: %s: %w", assetserrors.ErrUnreadableDirectory, abs, err))
						continue
					}
					if slices.Contains(dir.ancestors, resolved) {
						w.logger.Debug().Str("path", rel).Str("target", resolved).Msg("skipping link to ancestor directory")
						continue
					}
					next.ancestors = append(slices.Clip(dir.ancestors), resolved)
				}
				stack = append(stack, next)
			case typ.IsRegular():
				if abs == w.skipFile {
					continue
				}
				_, pre := w.norm.marker(name)
				records = append(records, FileRecord{AbsPath: abs, RelPath: rel, Precompressed: pre})
			default:
				w.logger.Debug().Str("path", rel).Str("mode", typ.String()).Msg("skipping special file")
			}
		}
	}
	return records, errors.Join(errs...)
}

// excluded reports whether an entry is dropped by the hidden-file rule or
// by an exclude pattern. Patterns match either the full slash-separated
// relative path or the base name.
func (w *walker) excluded(rel, name string) bool {
	if w.skipHidden && strings.HasPrefix(name, ".") {
		return true
	}
	if len(w.exclude) == 0 {
		return false
	}
	slashed := filepath.ToSlash(rel)
	for _, pattern := range w.exclude {
		if ok, _ := path.Match(pattern, slashed); ok {
			return true
		}
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
