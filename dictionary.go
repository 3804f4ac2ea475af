package doublearray

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	daerrors "github.com/tamirms/doublearray/errors"
	"github.com/tamirms/doublearray/internal/units"
)

// Dictionary is a static map from byte strings to non-negative ints stored
// as a double array.
//
// Thread Safety:
// - Search methods are safe for concurrent use once an array is attached
// - Build, SetArray, Open, Map, Clear and Close are NOT safe to call
//   concurrently with any other method
// - Arrays attached with SetArray must not be modified while in use
//
// The zero value is an empty dictionary.
type Dictionary struct {
	view units.View
	size int // reported unit count; may be 0 for borrowed arrays

	// Non-nil when view aliases a mapping owned by the dictionary.
	mmap mmap.MMap

	stats BuildStats
}

// BuildStats describes the most recent successful build.
type BuildStats struct {
	Keys        int // keys placed
	Units       int // array length in units
	Owned       int // units owned by a node
	Relocations int // child groups moved to resolve conflicts
	MovedUnits  int // units moved by relocations
	Probes      int // free slots examined by base search
	Grows       int // array growth steps
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{}
}

// Size returns the number of units in the array. Arrays attached with
// SetArray report 0.
func (d *Dictionary) Size() int {
	return d.size
}

// UnitSize returns the encoded size of one unit in bytes.
func (d *Dictionary) UnitSize() int {
	return units.Size
}

// TotalSize returns the array size in bytes.
func (d *Dictionary) TotalSize() int {
	return len(d.view)
}

// NonzeroSize returns the number of units owned by a node.
func (d *Dictionary) NonzeroSize() int {
	return d.view.CountOwned()
}

// Array returns the encoded units. The slice aliases the dictionary's
// storage and must not be modified.
func (d *Dictionary) Array() []byte {
	return d.view
}

// SetArray attaches a caller-owned array without copying it. Size reports 0
// afterwards; use SetArrayWithSize to record the unit count.
func (d *Dictionary) SetArray(array []byte) error {
	return d.attach(array, 0)
}

// SetArrayWithSize attaches a caller-owned array and records size as its
// unit count. size must not exceed the number of units in array.
func (d *Dictionary) SetArrayWithSize(array []byte, size int) error {
	if size < 0 || size > len(array)/units.Size {
		return fmt.Errorf("%w: size %d, array holds %d units", daerrors.ErrSizeOutOfRange, size, len(array)/units.Size)
	}
	return d.attach(array, size)
}

func (d *Dictionary) attach(array []byte, size int) error {
	view, err := units.NewView(array)
	if err != nil {
		return err
	}
	d.release()
	d.view = view
	d.size = size
	return nil
}

// Clear detaches the array, releasing it if the dictionary owns it.
func (d *Dictionary) Clear() {
	d.release()
}

// Close releases the array like Clear and reports any unmap failure.
func (d *Dictionary) Close() error {
	var err error
	if d.mmap != nil {
		err = d.mmap.Unmap()
		d.mmap = nil
	}
	d.view = nil
	d.size = 0
	if err != nil {
		return fmt.Errorf("unmap array: %w", err)
	}
	return nil
}

// release drops the current array. Unmap failures are logged.
func (d *Dictionary) release() {
	if err := d.Close(); err != nil {
		Logger().Warn("release array", zap.Error(err))
	}
}

// Checksum returns the xxHash64 of the encoded array.
func (d *Dictionary) Checksum() uint64 {
	return xxhash.Sum64(d.view)
}

// LastBuildStats returns statistics of the last successful Build.
func (d *Dictionary) LastBuildStats() BuildStats {
	return d.stats
}
