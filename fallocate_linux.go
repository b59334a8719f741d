//go:build linux

package assetmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for file and sets its length, so a full
// disk fails here instead of as SIGBUS while writing through the mapping.
func fallocateFile(file *os.File, size int64) error {
	fd := int(file.Fd())
	if err := unix.Fallocate(fd, 0, 0, size); err != nil {
		// tmpfs on old kernels, NFS and friends
		return unix.Ftruncate(fd, size)
	}
	return unix.Ftruncate(fd, size)
}
