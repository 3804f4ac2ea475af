// Package search implements the read-only double-array lookups: exact match,
// common prefix enumeration and resumable cursor traversal.
//
// All functions are pure reads over a units.View and are safe for concurrent
// use; result buffers and cursors belong to the caller.
package search

import "github.com/tamirms/doublearray/internal/units"

const (
	// NoValue means no key ends at the queried position.
	NoValue = -1

	// NoPath means the traversal hit a missing transition.
	NoPath = -2
)

// Result is one match: the stored value and the matched key length.
type Result struct {
	Value  int
	Length int
}

// Cursor is a resumable traversal position. The zero value is the root
// before any byte has been consumed.
type Cursor struct {
	Node   int
	KeyPos int
}

// walk follows key from node. ok is false if a transition was missing.
func walk(v units.View, node int, key []byte) (int, bool) {
	for _, c := range key {
		next, ok := v.Child(node, units.Label(c))
		if !ok {
			return node, false
		}
		node = next
	}
	return node, true
}

// ExactMatch returns the value of key, or a Result with Value NoValue.
func ExactMatch(v units.View, key []byte) Result {
	if v.Len() == 0 {
		return Result{Value: NoValue}
	}
	node, ok := walk(v, 0, key)
	if !ok {
		return Result{Value: NoValue}
	}
	value, ok := v.Value(node)
	if !ok {
		return Result{Value: NoValue}
	}
	return Result{Value: value, Length: len(key)}
}

// CommonPrefix reports every key that is a prefix of key, shortest first.
// Matches are written to results while there is room; the walk continues
// regardless, and the total number of matches is returned. A return value
// larger than len(results) means some matches were not written.
func CommonPrefix(v units.View, key []byte, results []Result) int {
	if v.Len() == 0 {
		return 0
	}
	n := 0
	node := 0
	for i := 0; ; i++ {
		if value, ok := v.Value(node); ok {
			if n < len(results) {
				results[n] = Result{Value: value, Length: i}
			}
			n++
		}
		if i == len(key) {
			return n
		}
		next, ok := v.Child(node, units.Label(key[i]))
		if !ok {
			return n
		}
		node = next
	}
}

// Traverse advances cursor over key[cursor.KeyPos:length].
//
// If a byte has no transition it returns NoPath and leaves the cursor on the
// last node reached, with KeyPos at the failing byte; the cursor must not be
// reused after that. Otherwise it returns the value of the key ending at the
// cursor, or NoValue.
func Traverse(v units.View, key []byte, cursor *Cursor, length int) int {
	if v.Len() == 0 {
		if cursor.KeyPos < length {
			return NoPath
		}
		return NoValue
	}
	for ; cursor.KeyPos < length; cursor.KeyPos++ {
		next, ok := v.Child(cursor.Node, units.Label(key[cursor.KeyPos]))
		if !ok {
			return NoPath
		}
		cursor.Node = next
	}
	if value, ok := v.Value(cursor.Node); ok {
		return value
	}
	return NoValue
}
