//go:build !linux && !darwin

package doublearray

// adviseRandom is a no-op on platforms without madvise.
func adviseRandom(data []byte) {}
