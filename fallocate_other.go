//go:build !linux && !darwin

package assetmap

import "os"

// fallocateFile sets the file length. Blocks may not be reserved on every
// filesystem.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
