package units

import (
	"fmt"

	daerrors "github.com/tamirms/doublearray/errors"
)

// Array is the growable unit storage used while building.
//
// Growth is append-only: indices assigned before a Grow keep their units.
// Array is not safe for concurrent use.
type Array struct {
	units []Unit
	limit int
}

// NewArray creates an array of initial free units that may grow up to limit
// units. A limit <= 0 or above MaxUnits means MaxUnits.
func NewArray(initial, limit int) *Array {
	if limit <= 0 || limit > MaxUnits {
		limit = MaxUnits
	}
	initial = max(1, min(initial, limit))
	return &Array{
		units: make([]Unit, initial),
		limit: limit,
	}
}

// Len returns the current number of units, free or owned.
func (a *Array) Len() int {
	return len(a.units)
}

// At returns the unit at index i.
func (a *Array) At(i int) Unit {
	return a.units[i]
}

// Set replaces the unit at index i.
func (a *Array) Set(i int, u Unit) {
	a.units[i] = u
}

// Free marks the unit at index i as unowned.
func (a *Array) Free(i int) {
	a.units[i] = Unit{}
}

// Ensure grows the array so that index i is addressable. The length at least
// doubles on every growth. It returns the previous length so callers can
// account for the new free slots.
func (a *Array) Ensure(i int) (int, error) {
	old := len(a.units)
	if i < old {
		return old, nil
	}
	if i >= a.limit {
		return old, fmt.Errorf("%w: index %d, limit %d units", daerrors.ErrArrayTooLarge, i, a.limit)
	}
	n := max(2*old, i+1)
	n = min(n, a.limit)
	a.units = append(a.units, make([]Unit, n-old)...)
	return old, nil
}

// Trim returns the number of units up to and including the last owned one.
func (a *Array) Trim() int {
	n := len(a.units)
	for n > 1 && a.units[n-1].IsFree() {
		n--
	}
	return n
}

// Encode serializes the first n units into a fresh View.
func (a *Array) Encode(n int) View {
	buf := make([]byte, n*Size)
	for i, u := range a.units[:n] {
		u.encodeTo(buf[i*Size:])
	}
	return View(buf)
}
