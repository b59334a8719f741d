// Package errors defines all exported error sentinels for the assetmap module.
//
// This is the single source of truth for error values. The generator, the
// runtime table package and the internal solver all import from here, so
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Entry point errors
var (
	ErrDirectoryNotFound = errors.New("assetmap: assets directory not found")
	ErrNotDirectory      = errors.New("assetmap: assets path is not a directory")
	ErrEmptyDirectory    = errors.New("assetmap: no files found in assets directory")
)

// Traversal errors
var (
	ErrUnreadableDirectory = errors.New("assetmap: directory cannot be read")
	ErrSymlink             = errors.New("assetmap: symbolic link not allowed")
	ErrUnreadableFile      = errors.New("assetmap: asset file cannot be read")
)

// Build errors
var (
	ErrBuilderClosed      = errors.New("assetmap: builder is closed")
	ErrEmptyTable         = errors.New("assetmap: cannot build table with zero assets")
	ErrTooManyAssets      = errors.New("assetmap: asset count exceeds maximum")
	ErrDuplicateKey       = errors.New("assetmap: duplicate asset key")
	ErrInvalidKey         = errors.New("assetmap: invalid asset key")
	ErrInvalidOption      = errors.New("assetmap: invalid build option")
	ErrEmbedOutsideOutput = errors.New("assetmap: embed directive requires assets under the output directory")
	ErrEmbedPattern       = errors.New("assetmap: file name cannot be written as an embed pattern")
)

// Construction errors
var (
	ErrIndistinguishableHashes = errors.New("assetmap: indistinguishable hashes in bucket - retry with different seed")
	ErrSolverFailed            = errors.New("assetmap: perfect hash search failed after all retries")
)

// Table errors
var (
	ErrCorruptedTable = errors.New("assetmap: table data is corrupted")
)
