// Package errors defines all exported error sentinels for the doublearray library.
//
// This is the single source of truth for error values. Both the top-level
// doublearray package and the internal build/units packages import from here,
// ensuring errors.Is checks work across package boundaries.
package errors

import "errors"

// Build errors
var (
	ErrUnsortedInput  = errors.New("doublearray: input keys are not sorted")
	ErrDuplicateKey   = errors.New("doublearray: duplicate key detected")
	ErrNegativeValue  = errors.New("doublearray: value is negative")
	ErrValueOverflow  = errors.New("doublearray: value exceeds maximum (2^31-1)")
	ErrLengthMismatch = errors.New("doublearray: lengths or values do not match key count")
	ErrKeyLength      = errors.New("doublearray: key length out of range")
	ErrArrayTooLarge  = errors.New("doublearray: unit array exceeds maximum size")
	ErrInvalidOption  = errors.New("doublearray: invalid build option")
)

// File errors
var (
	ErrTruncatedFile = errors.New("doublearray: array file is truncated")
	ErrEmptyPath     = errors.New("doublearray: empty file path")
)

// Array errors
var (
	ErrMisalignedArray = errors.New("doublearray: array length is not a multiple of the unit size")
	ErrSizeOutOfRange  = errors.New("doublearray: unit count exceeds array length")
	ErrCorruptedArray  = errors.New("doublearray: array data is corrupted")
	ErrNoArray         = errors.New("doublearray: no array attached")
)
