package units

import (
	"fmt"

	daerrors "github.com/tamirms/doublearray/errors"
)

// View is a read-only sequence of encoded units.
//
// A View never owns its memory: it may alias a built array, a memory-mapped
// file or a caller buffer. It is safe for concurrent readers as long as the
// underlying bytes are not modified.
type View []byte

// NewView checks that data holds whole units and returns it as a View.
func NewView(data []byte) (View, error) {
	if len(data)%Size != 0 {
		return nil, fmt.Errorf("%w: %d bytes", daerrors.ErrMisalignedArray, len(data))
	}
	return View(data), nil
}

// Len returns the number of units in the view.
func (v View) Len() int {
	return len(v) / Size
}

// At decodes the unit at index i. Precondition: 0 <= i < Len().
func (v View) At(i int) Unit {
	off := i * Size
	return decodeUnit(v[off : off+Size])
}

// Child returns the child of node reached by label, if that slot belongs to node.
func (v View) Child(node, label int) (int, bool) {
	t := v.At(node).Base() + label
	if t <= 0 || t >= v.Len() {
		return 0, false
	}
	if v.At(t).Check() != node {
		return 0, false
	}
	return t, true
}

// Value returns the value of the key ending at node, if any.
func (v View) Value(node int) (int, bool) {
	t, ok := v.Child(node, EndLabel)
	if !ok {
		return 0, false
	}
	u := v.At(t)
	if !u.IsLeaf() {
		return 0, false
	}
	return u.Value(), true
}

// CountOwned returns the number of units owned by some node.
func (v View) CountOwned() int {
	n := 0
	for i := range v.Len() {
		if !v.At(i).IsFree() {
			n++
		}
	}
	return n
}

// CheckRoot verifies that unit 0 looks like a root: owned by itself and not a leaf.
func (v View) CheckRoot() error {
	if v.Len() == 0 {
		return daerrors.ErrTruncatedFile
	}
	root := v.At(0)
	if root.Check() != 0 || root.IsLeaf() || root.Base() < 0 {
		return fmt.Errorf("%w: malformed root unit", daerrors.ErrCorruptedArray)
	}
	return nil
}

// Verify checks every unit in [lo, hi) for structural consistency:
// owners are in range, non-leaf and owned themselves, and every owned unit
// sits at a legal label offset from its owner's base. Leaves only appear on
// the end-of-key label.
func (v View) Verify(lo, hi int) error {
	n := v.Len()
	for i := lo; i < hi; i++ {
		u := v.At(i)
		if u.IsFree() {
			if u.IsLeaf() {
				return fmt.Errorf("%w: unit %d: free slot with leaf flag", daerrors.ErrCorruptedArray, i)
			}
			continue
		}
		if i == 0 {
			continue
		}
		owner := u.Check()
		if owner >= n {
			return fmt.Errorf("%w: unit %d: owner %d out of range", daerrors.ErrCorruptedArray, i, owner)
		}
		parent := v.At(owner)
		if parent.IsLeaf() || parent.IsFree() {
			return fmt.Errorf("%w: unit %d: owner %d cannot have children", daerrors.ErrCorruptedArray, i, owner)
		}
		label := i - parent.Base()
		if label < 0 || label > MaxLabel {
			return fmt.Errorf("%w: unit %d: label %d out of range", daerrors.ErrCorruptedArray, i, label)
		}
		if u.IsLeaf() != (label == EndLabel) {
			return fmt.Errorf("%w: unit %d: leaf flag on label %d", daerrors.ErrCorruptedArray, i, label)
		}
		if !u.IsLeaf() && u.Base() < 0 {
			return fmt.Errorf("%w: unit %d: negative base", daerrors.ErrCorruptedArray, i)
		}
	}
	return nil
}
