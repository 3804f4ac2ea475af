//go:build !linux && !darwin

package doublearray

import "os"

// fallocateFile sets the size of an array file. Blocks are not reserved on
// these platforms.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
