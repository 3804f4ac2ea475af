//go:build darwin

package doublearray

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile sizes an array file and reserves its blocks with
// F_PREALLOCATE, so writes through the mapping cannot SIGBUS on a full disk.
// F_PREALLOCATE never changes the file size, hence the truncate.
func fallocateFile(file *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	}
	// Reservation is best effort; the truncate below is what must succeed.
	_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst)
	return unix.Ftruncate(int(file.Fd()), size)
}
