package doublearray

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

const upperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randomKey returns a key of 1 to maxLen bytes drawn from alphabet.
func randomKey(rng *rand.Rand, maxLen int, alphabet string) []byte {
	k := make([]byte, 1+rng.IntN(maxLen))
	for i := range k {
		k[i] = alphabet[rng.IntN(len(alphabet))]
	}
	return k
}

// generateKeySets returns n sorted unique valid keys and up to n invalid
// keys that are disjoint from them.
func generateKeySets(rng *rand.Rand, n int) (valid, invalid [][]byte) {
	seen := make(map[string]bool, 2*n)
	for len(valid) < n {
		k := randomKey(rng, 8, upperAlphabet)
		if !seen[string(k)] {
			seen[string(k)] = true
			valid = append(valid, k)
		}
	}
	for range n {
		k := randomKey(rng, 8, upperAlphabet)
		if !seen[string(k)] {
			seen[string(k)] = true
			invalid = append(invalid, k)
		}
	}
	slices.SortFunc(valid, bytes.Compare)
	return valid, invalid
}

// randomValues returns n values in [0, 2^31-1).
func randomValues(rng *rand.Rand, n int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = rng.IntN(1<<31 - 1)
	}
	return values
}

// buildTestDictionary builds a dictionary or fails the test.
func buildTestDictionary(t testing.TB, keys [][]byte, opts ...BuildOption) *Dictionary {
	t.Helper()
	d := New()
	if err := d.Build(keys, opts...); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

// stringKeys converts strings to byte keys.
func stringKeys(ss ...string) [][]byte {
	keys := make([][]byte, len(ss))
	for i, s := range ss {
		keys[i] = []byte(s)
	}
	return keys
}

// checkDictionary verifies exact match, common prefix and traversal answers
// for every valid and invalid key.
func checkDictionary(t *testing.T, d *Dictionary, keys [][]byte, values []int, invalid [][]byte) {
	t.Helper()
	value := func(i int) int {
		if values == nil {
			return i
		}
		return values[i]
	}

	results := make([]Result, 16)
	for i, key := range keys {
		r := d.ExactMatchSearch(key)
		if r.Value != value(i) || r.Length != len(key) {
			t.Fatalf("ExactMatchSearch(%q) = %+v, want value %d length %d", key, r, value(i), len(key))
		}

		n := d.CommonPrefixSearch(key, results)
		if n < 1 || n > len(results) {
			t.Fatalf("CommonPrefixSearch(%q) = %d", key, n)
		}
		last := results[n-1]
		if last.Value != value(i) || last.Length != len(key) {
			t.Fatalf("CommonPrefixSearch(%q) last match = %+v, want value %d", key, last, value(i))
		}

		var c Cursor
		got := NoValue
		for j := range key {
			got = d.Traverse(key, &c, j+1)
			if got == NoPath {
				t.Fatalf("Traverse(%q) hit NoPath at %d", key, j)
			}
		}
		if got != value(i) {
			t.Fatalf("Traverse(%q) = %d, want %d", key, got, value(i))
		}
	}

	for _, key := range invalid {
		if r := d.ExactMatchSearch(key); r.Value != NoValue {
			t.Fatalf("ExactMatchSearch(%q) = %+v for absent key", key, r)
		}
		n := d.CommonPrefixSearch(key, results)
		for _, m := range results[:min(n, len(results))] {
			if m.Length >= len(key) {
				t.Fatalf("CommonPrefixSearch(%q) reported the absent key itself", key)
			}
		}
		var c Cursor
		if got := d.Traverse(key, &c, len(key)); got >= 0 {
			t.Fatalf("Traverse(%q) = %d for absent key", key, got)
		}
	}
}
