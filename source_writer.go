package assetmap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
)

// sourceWriter writes a generated file through a temporary sibling and a
// rename, so a failed run never leaves a truncated file behind and readers
// see either the old file or the complete new one.
//
// After reserve, writes are copied into a shared mapping of the sized
// temporary file; without it they go straight to the file.
type sourceWriter struct {
	path string
	file *os.File
	mmap mmap.MMap
	off  int
}

func newSourceWriter(path string) (*sourceWriter, error) {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &sourceWriter{path: path, file: file}, nil
}

// reserve sizes the temporary file to exactly size bytes and maps it for
// writing. It must come before the first Write.
func (sw *sourceWriter) reserve(size int64) error {
	if sw.off != 0 || sw.mmap != nil {
		return errors.New("output file reserved after writing")
	}
	if size == 0 {
		return nil
	}
	// Reserve blocks first: running out of space while writing through
	// the mapping would be SIGBUS instead of an error.
	if err := fallocateFile(sw.file, size); err != nil {
		return fmt.Errorf("allocate output file: %w", err)
	}
	mm, err := mmap.MapRegion(sw.file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		return fmt.Errorf("mmap output file: %w", err)
	}
	sw.mmap = mm
	prefaultRegion(mm)
	return nil
}

// Write appends p to the output.
func (sw *sourceWriter) Write(p []byte) (int, error) {
	if sw.mmap == nil {
		n, err := sw.file.Write(p)
		sw.off += n
		return n, err
	}
	if len(p) > len(sw.mmap)-sw.off {
		return 0, fmt.Errorf("write %d bytes at offset %d: %w", len(p), sw.off, io.ErrShortWrite)
	}
	n := copy(sw.mmap[sw.off:], p)
	sw.off += n
	return n, nil
}

// commit flushes the mapping, syncs the temporary file and renames it over
// the destination.
func (sw *sourceWriter) commit() error {
	if sw.mmap != nil {
		if sw.off != len(sw.mmap) {
			return fmt.Errorf("output file holds %d of %d reserved bytes", sw.off, len(sw.mmap))
		}
		if err := sw.mmap.Flush(); err != nil {
			return fmt.Errorf("mmap flush failed: %w", err)
		}
		unmapErr := sw.mmap.Unmap()
		sw.mmap = nil
		if unmapErr != nil {
			return fmt.Errorf("mmap unmap failed: %w", unmapErr)
		}
	}
	if err := sw.file.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod output file: %w", err)
	}
	if err := sw.file.Sync(); err != nil {
		return fmt.Errorf("sync output file: %w", err)
	}
	closeErr := sw.file.Close()
	tmp := sw.file.Name()
	sw.file = nil
	if closeErr != nil {
		return errors.Join(fmt.Errorf("close output file: %w", closeErr), os.Remove(tmp))
	}
	if err := os.Rename(tmp, sw.path); err != nil {
		return errors.Join(fmt.Errorf("rename output file: %w", err), os.Remove(tmp))
	}
	return nil
}

// abort releases the mapping and removes the temporary file.
// Idempotent: safe to call after commit.
func (sw *sourceWriter) abort() error {
	var unmapErr error
	if sw.mmap != nil {
		unmapErr = sw.mmap.Unmap()
		sw.mmap = nil
	}
	if sw.file == nil {
		return unmapErr
	}
	name := sw.file.Name()
	closeErr := sw.file.Close()
	sw.file = nil
	return errors.Join(unmapErr, closeErr, os.Remove(name))
}
