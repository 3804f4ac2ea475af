//go:build linux || darwin

package doublearray

import "golang.org/x/sys/unix"

// adviseRandom tells the kernel that a mapped array will be read at random
// offsets, so readahead is wasted.
// Best-effort: errors are silently ignored.
func adviseRandom(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_RANDOM)
}
