package doublearray

import "github.com/tamirms/doublearray/internal/search"

const (
	// NoValue is returned when no key ends at the queried position.
	NoValue = search.NoValue

	// NoPath is returned by Traverse when a byte has no transition.
	NoPath = search.NoPath
)

// Result is a match: the key's value and the matched length in bytes.
type Result = search.Result

// Cursor is a resumable Traverse position. The zero value starts at the
// root with no bytes consumed.
type Cursor = search.Cursor

// ExactMatchSearch returns the value stored for key. Absent keys yield a
// Result with Value NoValue and Length 0.
func (d *Dictionary) ExactMatchSearch(key []byte) Result {
	return search.ExactMatch(d.view, key)
}

// ExactMatchSearchLength is ExactMatchSearch on key[:length].
func (d *Dictionary) ExactMatchSearchLength(key []byte, length int) Result {
	return search.ExactMatch(d.view, key[:length])
}

// CommonPrefixSearch finds every stored key that is a prefix of key, in
// increasing length order. At most len(results) matches are written; the
// return value is the total number found.
func (d *Dictionary) CommonPrefixSearch(key []byte, results []Result) int {
	return search.CommonPrefix(d.view, key, results)
}

// CommonPrefixSearchLength is CommonPrefixSearch on key[:length].
func (d *Dictionary) CommonPrefixSearchLength(key []byte, results []Result, length int) int {
	return search.CommonPrefix(d.view, key[:length], results)
}

// CommonPrefixSearchAll returns every stored key that is a prefix of key.
func (d *Dictionary) CommonPrefixSearchAll(key []byte) []Result {
	n := search.CommonPrefix(d.view, key, nil)
	if n == 0 {
		return nil
	}
	results := make([]Result, n)
	search.CommonPrefix(d.view, key, results)
	return results
}

// Traverse advances cursor through key[cursor.KeyPos:length] and returns
// the value of the key ending there, NoValue if none does, or NoPath if the
// walk left the trie. Traversal can be resumed with a larger length as long
// as NoPath has not been returned.
func (d *Dictionary) Traverse(key []byte, cursor *Cursor, length int) int {
	return search.Traverse(d.view, key, cursor, length)
}
