//go:build linux

package doublearray

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile sizes an array file and reserves its blocks, so writes
// through the mapping cannot SIGBUS on a full disk. Filesystems without
// fallocate (NFS, some FUSE mounts) only get the size set.
func fallocateFile(file *os.File, size int64) error {
	fd := int(file.Fd())
	if err := unix.Fallocate(fd, 0, 0, size); err == nil {
		// Mode 0 already extends the file.
		return nil
	}
	return unix.Ftruncate(fd, size)
}
