package doublearray

import (
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// mapRegion maps the output file. Tests replace it to simulate failures.
var mapRegion = mmap.MapRegion

// arrayWriter writes an encoded array to disk through a pre-allocated,
// memory-mapped region.
type arrayWriter struct {
	file *os.File
	mmap mmap.MMap
}

// newArrayWriter creates path and maps size bytes of it for writing.
// On failure the file is removed again.
func newArrayWriter(path string, size int) (*arrayWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create array file: %w", err)
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, int64(size)); err != nil {
		primaryErr := fmt.Errorf("allocate disk space: %w", err)
		return nil, errors.Join(primaryErr, file.Close(), os.Remove(path))
	}

	mm, err := mapRegion(file, size, mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap array file: %w", err)
		return nil, errors.Join(primaryErr, file.Close(), os.Remove(path))
	}
	return &arrayWriter{file: file, mmap: mm}, nil
}

// write copies data into the mapped region and finalizes the file.
// The writer is closed on return.
func (aw *arrayWriter) write(data []byte) error {
	copy(aw.mmap, data)

	if err := aw.mmap.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, aw.close())
	}

	unmapErr := aw.mmap.Unmap()
	aw.mmap = nil
	if unmapErr != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", unmapErr)
		return errors.Join(primaryErr, aw.close())
	}

	closeErr := aw.file.Close()
	aw.file = nil
	return closeErr
}

func (aw *arrayWriter) close() error {
	var unmapErr error
	if aw.mmap != nil {
		unmapErr = aw.mmap.Unmap()
		aw.mmap = nil
	}
	var closeErr error
	if aw.file != nil {
		closeErr = aw.file.Close()
		aw.file = nil
	}
	return errors.Join(unmapErr, closeErr)
}
