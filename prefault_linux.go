//go:build linux

package assetmap

import "golang.org/x/sys/unix"

// MADV_POPULATE_WRITE was added in Linux 5.14.
// Older kernels return EINVAL, which is ignored.
const madvPopulateWrite = 23

// prefaultRegion asks the kernel to fault in the pages of the output
// mapping before the generated source is copied into it.
func prefaultRegion(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, madvPopulateWrite)
}
