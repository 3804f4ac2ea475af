// Package units defines the fixed-width double-array unit record, the growable
// array used during construction and the read-only byte view used by lookups.
//
// Unit wire format (8 bytes, little-endian):
//
//	Offset  Size  Field  Type
//	0       4     Base   int32_le (base offset; the stored value for leaf units)
//	4       4     Check  uint32_le (bits 0-30: owner index + 1, 0 = free; bit 31: leaf flag)
//
// Node identity is the unit index. Index 0 is the root, which owns itself so
// that it never reads as a free slot.
package units

import (
	"encoding/binary"
	"math"
)

const (
	// Size is the serialized width of one unit in bytes.
	Size = 8

	// EndLabel is the label of the end-of-key child.
	EndLabel = 0

	// MaxLabel is the largest transition label (byte 0xFF).
	MaxLabel = 256

	// MaxValue is the largest value a leaf can hold.
	MaxValue = math.MaxInt32

	// MaxUnits is the largest array length addressable by the 31-bit owner field.
	MaxUnits = int(ownerMask)

	leafFlag  = uint32(1) << 31
	ownerMask = leafFlag - 1
)

// Label maps a key byte to its transition label. Label 0 is reserved for the
// end of a key, so zero bytes inside keys stay distinguishable from it.
func Label(c byte) int {
	return int(c) + 1
}

// Unit is one double-array slot.
type Unit struct {
	base  uint32
	check uint32
}

// Internal returns an owned, non-terminal unit.
func Internal(owner, base int) Unit {
	return Unit{base: uint32(int32(base)), check: uint32(owner + 1)}
}

// Leaf returns an owned terminal unit carrying value.
func Leaf(owner, value int) Unit {
	return Unit{base: uint32(int32(value)), check: uint32(owner+1) | leafFlag}
}

// Base returns the base offset of an internal unit.
func (u Unit) Base() int {
	return int(int32(u.base))
}

// Value returns the value stored in a leaf unit.
func (u Unit) Value() int {
	return int(int32(u.base))
}

// Check returns the index of the owning node, or -1 for a free slot.
func (u Unit) Check() int {
	return int(u.check&ownerMask) - 1
}

// IsFree reports whether no node owns this slot.
func (u Unit) IsFree() bool {
	return u.check&ownerMask == 0
}

// IsLeaf reports whether the unit is a terminal value holder.
func (u Unit) IsLeaf() bool {
	return u.check&leafFlag != 0
}

// WithBase returns u with its base replaced.
func (u Unit) WithBase(base int) Unit {
	u.base = uint32(int32(base))
	return u
}

// WithCheck returns u re-owned by owner, keeping the leaf flag.
func (u Unit) WithCheck(owner int) Unit {
	u.check = (u.check & leafFlag) | uint32(owner+1)
	return u
}

// encodeTo serializes the unit into buf[0:8].
func (u Unit) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], u.base)
	binary.LittleEndian.PutUint32(buf[4:8], u.check)
}

// decodeUnit parses a unit from buf[0:8].
func decodeUnit(buf []byte) Unit {
	return Unit{
		base:  binary.LittleEndian.Uint32(buf[0:4]),
		check: binary.LittleEndian.Uint32(buf[4:8]),
	}
}
