//go:build !linux

package assetmap

// prefaultRegion is a no-op off Linux.
func prefaultRegion(data []byte) {}
