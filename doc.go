// Package doublearray implements a static dictionary from byte strings to
// non-negative integers, stored as a double-array trie.
//
// The whole dictionary is one flat array of 8-byte units. Each unit records
// its owner (the parent node) and either a base offset for its children or,
// for leaves, the stored value. A transition from node s on byte c goes to
// base(s)+c+1 and is valid when that unit names s as its owner; the
// end-of-key transition uses offset 0. Lookups therefore cost one array
// read per key byte, and the array can be saved, memory-mapped and shared
// as is.
//
// # Basic Usage
//
// Building a dictionary:
//
//	keys := [][]byte{[]byte("AB"), []byte("ABC"), []byte("B")} // sorted, unique
//	var d doublearray.Dictionary
//	if err := d.Build(keys, doublearray.WithValues([]int{0, 1, 2})); err != nil {
//	    log.Fatal(err)
//	}
//	if err := d.Save("dict.da"); err != nil {
//	    log.Fatal(err)
//	}
//
// Querying:
//
//	var d doublearray.Dictionary
//	if err := d.Map("dict.da"); err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	r := d.ExactMatchSearch([]byte("ABC")) // r.Value == 1
//	matches := d.CommonPrefixSearchAll([]byte("ABCD"))
//
// # Package Structure
//
//   - Public API: dictionary.go (Dictionary, SetArray, Clear), build.go (Build),
//     search.go (ExactMatchSearch, CommonPrefixSearch, Traverse)
//   - Configuration: builder_options.go (BuildOption, With* functions)
//   - Persistence: persist.go (Save, Open, Map), array_writer.go
//   - Integrity: verify.go (Verify), Dictionary.Checksum
//   - Unit encoding: internal/units/
//   - Construction: internal/build/ (base search, free list, relocation)
//   - Lookups: internal/search/
//   - Platform: fallocate_*.go, fadvise_*.go, advise_*.go
package doublearray
